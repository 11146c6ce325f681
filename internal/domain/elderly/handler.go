package elderly

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"medicare-adherence/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	// Rutas planas: doses/medications/reports cuelgan otras bajo /elderly/{elderlyID}.
	r.Post("/elderly", createElderlyHandler(svc))
	r.Get("/elderly", listElderlyHandler(svc))
	r.Get("/elderly/{elderlyID}", getElderlyHandler(svc))
	r.Patch("/elderly/{elderlyID}", updateElderlyHandler(svc))
}

type createElderlyRequest struct {
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	DateOfBirth      string `json:"date_of_birth"` // YYYY-MM-DD opcional
	Phone            string `json:"phone"`
	EmergencyContact string `json:"emergency_contact"`
	Notes            string `json:"notes"`
}

type updateElderlyRequest struct {
	FirstName        *string `json:"first_name"`
	LastName         *string `json:"last_name"`
	Phone            *string `json:"phone"`
	EmergencyContact *string `json:"emergency_contact"`
	Notes            *string `json:"notes"`
	IsActive         *bool   `json:"is_active"`
	// date_of_birth se lee aparte para distinguir null de ausente.
}

type elderlyResponse struct {
	ID                  string     `json:"id"`
	CaregiverID         string     `json:"caregiver_id"`
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	DateOfBirth         *string    `json:"date_of_birth,omitempty"`
	Phone               string     `json:"phone"`
	EmergencyContact    string     `json:"emergency_contact"`
	Notes               string     `json:"notes"`
	IsActive            bool       `json:"is_active"`
	LastMedicationTaken *time.Time `json:"last_medication_taken,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// createElderlyHandler godoc
// @Summary Registrar paciente
// @Description Crea un paciente a cargo del cuidador autenticado. Autenticación: `X-Debug-Caregiver-ID` (dev) o `Authorization: Bearer <token>`.
// @Tags elderly
// @Accept json
// @Produce json
// @Param X-Debug-Caregiver-ID header string false "Solo en modo dev"
// @Param payload body createElderlyRequest true "Datos del paciente; date_of_birth en formato YYYY-MM-DD"
// @Success 201 {object} elderlyResponse
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Router /elderly [post]
func createElderlyHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caregiverID := middleware.CaregiverID(r.Context())
		if caregiverID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createElderlyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var dob *time.Time
		if strings.TrimSpace(req.DateOfBirth) != "" {
			t, err := time.Parse(time.DateOnly, req.DateOfBirth)
			if err != nil {
				http.Error(w, "date_of_birth must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			dob = &t
		}

		p, err := svc.Create(r.Context(), caregiverID, CreateInput{
			FirstName:        req.FirstName,
			LastName:         req.LastName,
			DateOfBirth:      dob,
			Phone:            req.Phone,
			EmergencyContact: req.EmergencyContact,
			Notes:            req.Notes,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toElderlyResponse(p))
	}
}

// listElderlyHandler godoc
// @Summary Listar pacientes del cuidador
// @Tags elderly
// @Produce json
// @Param X-Debug-Caregiver-ID header string false "Solo en modo dev"
// @Success 200 {array} elderlyResponse
// @Failure 401 {string} string "unauthorized"
// @Router /elderly [get]
func listElderlyHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caregiverID := middleware.CaregiverID(r.Context())
		if caregiverID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByCaregiver(r.Context(), caregiverID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]elderlyResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toElderlyResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getElderlyHandler godoc
// @Summary Perfil de paciente
// @Tags elderly
// @Produce json
// @Param X-Debug-Caregiver-ID header string false "Solo en modo dev"
// @Param elderlyID path string true "ID del paciente"
// @Success 200 {object} elderlyResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "elderly not found"
// @Router /elderly/{elderlyID} [get]
func getElderlyHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caregiverID := middleware.CaregiverID(r.Context())
		if caregiverID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		p, err := svc.Authorize(r.Context(), chi.URLParam(r, "elderlyID"), caregiverID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toElderlyResponse(p))
	}
}

// updateElderlyHandler godoc
// @Summary Actualizar paciente
// @Description PATCH parcial. Enviar `"date_of_birth": null` limpia la fecha.
// @Tags elderly
// @Accept json
// @Produce json
// @Param X-Debug-Caregiver-ID header string false "Solo en modo dev"
// @Param elderlyID path string true "ID del paciente"
// @Param payload body updateElderlyRequest true "Campos a modificar"
// @Success 200 {object} elderlyResponse
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "elderly not found"
// @Router /elderly/{elderlyID} [patch]
func updateElderlyHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caregiverID := middleware.CaregiverID(r.Context())
		if caregiverID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// Decodificar a map primero para detectar presencia de date_of_birth.
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var req updateElderlyRequest
		b, _ := json.Marshal(raw)
		if err := json.Unmarshal(b, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var dob OptionalDate
		if v, ok := raw["date_of_birth"]; ok {
			dob.Present = true
			if string(v) != "null" {
				var s string
				if err := json.Unmarshal(v, &s); err != nil {
					http.Error(w, "date_of_birth must be YYYY-MM-DD or null", http.StatusBadRequest)
					return
				}
				t, err := time.Parse(time.DateOnly, s)
				if err != nil {
					http.Error(w, "date_of_birth must be YYYY-MM-DD or null", http.StatusBadRequest)
					return
				}
				dob.Value = &t
			}
		}

		updated, err := svc.UpdateProfile(r.Context(), chi.URLParam(r, "elderlyID"), caregiverID, UpdateInput{
			FirstName:        req.FirstName,
			LastName:         req.LastName,
			DateOfBirth:      dob,
			Phone:            req.Phone,
			EmergencyContact: req.EmergencyContact,
			Notes:            req.Notes,
			IsActive:         req.IsActive,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toElderlyResponse(updated))
	}
}

func toElderlyResponse(p Patient) elderlyResponse {
	var dob *string
	if p.DateOfBirth != nil {
		s := p.DateOfBirth.Format(time.DateOnly)
		dob = &s
	}
	return elderlyResponse{
		ID:                  p.ID,
		CaregiverID:         p.CaregiverID,
		FirstName:           p.FirstName,
		LastName:            p.LastName,
		DateOfBirth:         dob,
		Phone:               p.Phone,
		EmergencyContact:    p.EmergencyContact,
		Notes:               p.Notes,
		IsActive:            p.IsActive,
		LastMedicationTaken: p.LastMedicationTaken,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "elderly not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// writeJSON está duplicado en cada módulo a propósito; ver doses/medications/reports.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
