package medications

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"medicare-adherence/internal/domain/adherence"
	"medicare-adherence/internal/domain/doses"
	"medicare-adherence/internal/domain/elderly"
	"medicare-adherence/internal/middleware"

	"github.com/go-chi/chi/v5"
)

const defaultUpcomingHours = 24

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/medications", createMedicationHandler(svc))
	r.Get("/medications/upcoming", upcomingHandler(svc))
	r.Post("/medications/log-taken", logTakenHandler(svc))
	r.Get("/medications/{medicationID}", getMedicationHandler(svc))
	r.Patch("/medications/{medicationID}", updateMedicationHandler(svc))
	r.Post("/medications/{medicationID}/skip", skipHandler(svc))
	r.Patch("/medications/{medicationID}/status", setStatusHandler(svc))
	r.Get("/elderly/{elderlyID}/medications", listByElderlyHandler(svc))
}

type createMedicationRequest struct {
	ElderlyID    string `json:"elderly_id"`
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	Unit         string `json:"unit"`
	Instructions string `json:"instructions"`
	Frequency    string `json:"frequency" enums:"once,twice,three_times,four_times,as_needed,weekly,monthly"`
	StartDate    string `json:"start_date"` // RFC3339 opcional
	EndDate      string `json:"end_date"`   // RFC3339 opcional
}

type logTakenRequest struct {
	MedicationID string `json:"medication_id"`
	ElderlyID    string `json:"elderly_id"`
	TakenAt      string `json:"taken_at"` // RFC3339 opcional, default now
	Notes        string `json:"notes"`
}

type skipRequest struct {
	Notes string `json:"notes"`
}

type updateMedicationRequest struct {
	Name         *string `json:"name"`
	Dosage       *string `json:"dosage"`
	Unit         *string `json:"unit"`
	Instructions *string `json:"instructions"`
	// end_date se lee aparte para distinguir null de ausente.
}

type setStatusRequest struct {
	Status Status `json:"status" enums:"active,paused"`
}

// MedicationResponse la reutiliza reports.
type MedicationResponse struct {
	ID            string              `json:"id"`
	ElderlyID     string              `json:"elderly_id"`
	Name          string              `json:"name"`
	Dosage        string              `json:"dosage"`
	Unit          string              `json:"unit"`
	Instructions  string              `json:"instructions"`
	Frequency     adherence.Frequency `json:"frequency"`
	StartDate     time.Time           `json:"start_date"`
	EndDate       *time.Time          `json:"end_date,omitempty"`
	Status        Status              `json:"status"`
	LastTaken     *time.Time          `json:"last_taken,omitempty"`
	NextDose      *time.Time          `json:"next_dose,omitempty"`
	TotalDoses    int                 `json:"total_doses"`
	TakenDoses    int                 `json:"taken_doses"`
	AdherenceRate *int                `json:"adherence_rate"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

type doseResultResponse struct {
	Dose       doses.Response     `json:"dose"`
	Medication MedicationResponse `json:"medication"`
}

// createMedicationHandler godoc
// @Summary Crear medicación
// @Description Crea una medicación para un paciente del cuidador. La frecuencia se valida acá: un valor desconocido es 400, nunca se asume un default.
// @Tags medications
// @Accept json
// @Produce json
// @Param X-Debug-Caregiver-ID header string false "Solo en modo dev"
// @Param payload body createMedicationRequest true "Datos de la medicación"
// @Success 201 {object} MedicationResponse
// @Failure 400 {string} string "invalid json / invalid frequency / reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "elderly not found"
// @Router /medications [post]
func createMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caregiverID := middleware.CaregiverID(r.Context())
		if caregiverID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createMedicationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		start, err := optionalTime(req.StartDate)
		if err != nil {
			http.Error(w, "start_date must be RFC3339", http.StatusBadRequest)
			return
		}
		end, err := optionalTime(req.EndDate)
		if err != nil {
			http.Error(w, "end_date must be RFC3339", http.StatusBadRequest)
			return
		}

		m, err := svc.Create(r.Context(), caregiverID, CreateInput{
			ElderlyID:    req.ElderlyID,
			Name:         req.Name,
			Dosage:       req.Dosage,
			Unit:         req.Unit,
			Instructions: req.Instructions,
			Frequency:    req.Frequency,
			StartDate:    start,
			EndDate:      end,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, ToResponse(m))
	}
}

// getMedicationHandler godoc
// @Summary Detalle de medicación
// @Tags medications
// @Produce json
// @Param X-Debug-Caregiver-ID header string false "Solo en modo dev"
// @Param medicationID path string true "ID de la medicación"
// @Success 200 {object} MedicationResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "medication not found"
// @Router /medications/{medicationID} [get]
func getMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caregiverID := middleware.CaregiverID(r.Context())
		if caregiverID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		m, err := svc.Authorize(r.Context(), chi.URLParam(r, "medicationID"), caregiverID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ToResponse(m))
	}
}

// updateMedicationHandler godoc
// @Summary Editar medicación
// @Description Edita nombre, dosis, unidad, instrucciones o end_date (RFC3339 o null). Un end_date anterior a la dosis pendiente completa el tratamiento; extender uno completado lo reabre.
// @Tags medications
// @Accept json
// @Produce json
// @Param X-Debug-Caregiver-ID header string false "Solo en modo dev"
// @Param medicationID path string true "ID de la medicación"
// @Param payload body updateMedicationRequest true "Campos a editar"
// @Success 200 {object} MedicationResponse
// @Failure 400 {string} string "invalid input"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "medication not found"
// @Failure 409 {string} string "concurrent update"
// @Router /medications/{medicationID} [patch]
func updateMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caregiverID := middleware.CaregiverID(r.Context())
		if caregiverID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// Decodificar a map primero para detectar presencia de end_date.
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var req updateMedicationRequest
		b, _ := json.Marshal(raw)
		if err := json.Unmarshal(b, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var end OptionalTime
		if v, ok := raw["end_date"]; ok {
			end.Present = true
			if string(v) != "null" {
				var s string
				if err := json.Unmarshal(v, &s); err != nil {
					http.Error(w, "end_date must be RFC3339 or null", http.StatusBadRequest)
					return
				}
				t, err := time.Parse(time.RFC3339, s)
				if err != nil {
					http.Error(w, "end_date must be RFC3339 or null", http.StatusBadRequest)
					return
				}
				end.Value = &t
			}
		}

		m, err := svc.Update(r.Context(), chi.URLParam(r, "medicationID"), caregiverID, UpdateInput{
			Name:         req.Name,
			Dosage:       req.Dosage,
			Unit:         req.Unit,
			Instructions: req.Instructions,
			EndDate:      end,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ToResponse(m))
	}
}

// listByElderlyHandler godoc
// @Summary Medicaciones de un paciente
// @Tags medications
// @Produce json
// @Param X-Debug-Caregiver-ID header string false "Solo en modo dev"
// @Param elderlyID path string true "ID del paciente"
// @Success 200 {array} MedicationResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "elderly not found"
// @Router /elderly/{elderlyID}/medications [get]
func listByElderlyHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caregiverID := middleware.CaregiverID(r.Context())
		if caregiverID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByElderly(r.Context(), chi.URLParam(r, "elderlyID"), caregiverID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponses(items))
	}
}

// logTakenHandler godoc
// @Summary Registrar toma
// @Description Registra la toma de la dosis pendiente. La clasificación (taken/delayed) la hace el servidor con la ventana de gracia. Devuelve la dosis registrada y la medicación con contadores y próxima dosis actualizados.
// @Tags medications
// @Accept json
// @Produce json
// @Param X-Debug-Caregiver-ID header string false "Solo en modo dev"
// @Param payload body logTakenRequest true "taken_at en RFC3339; default now"
// @Success 201 {object} doseResultResponse
// @Failure 400 {string} string "invalid json / taken_at inválido"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "medication not found"
// @Failure 409 {string} string "medication is not active / concurrent update"
// @Router /medications/log-taken [post]
func logTakenHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caregiverID := middleware.CaregiverID(r.Context())
		if caregiverID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req logTakenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.MedicationID) == "" {
			http.Error(w, "medication_id is required", http.StatusBadRequest)
			return
		}
		takenAt, err := optionalTime(req.TakenAt)
		if err != nil {
			http.Error(w, "taken_at must be RFC3339", http.StatusBadRequest)
			return
		}

		res, err := svc.MarkTaken(r.Context(), caregiverID, MarkTakenInput{
			MedicationID: req.MedicationID,
			ElderlyID:    strings.TrimSpace(req.ElderlyID),
			TakenAt:      takenAt,
			Notes:        req.Notes,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toDoseResult(res))
	}
}

// skipHandler godoc
// @Summary Omitir dosis
// @Description Registra la omisión intencional de la dosis pendiente (skipped) y avanza la próxima dosis.
// @Tags medications
// @Accept json
// @Produce json
// @Param X-Debug-Caregiver-ID header string false "Solo en modo dev"
// @Param medicationID path string true "ID de la medicación"
// @Param payload body skipRequest false "Notas opcionales"
// @Success 201 {object} doseResultResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "medication not found"
// @Failure 409 {string} string "no scheduled dose / not active / concurrent update"
// @Router /medications/{medicationID}/skip [post]
func skipHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caregiverID := middleware.CaregiverID(r.Context())
		if caregiverID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// Body opcional.
		var req skipRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
		}

		res, err := svc.Skip(r.Context(), caregiverID, chi.URLParam(r, "medicationID"), req.Notes)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toDoseResult(res))
	}
}

// setStatusHandler godoc
// @Summary Pausar o reactivar medicación
// @Tags medications
// @Accept json
// @Produce json
// @Param X-Debug-Caregiver-ID header string false "Solo en modo dev"
// @Param medicationID path string true "ID de la medicación"
// @Param payload body setStatusRequest true "active | paused"
// @Success 200 {object} MedicationResponse
// @Failure 400 {string} string "invalid status"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "medication not found"
// @Failure 409 {string} string "completed / concurrent update"
// @Router /medications/{medicationID}/status [patch]
func setStatusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caregiverID := middleware.CaregiverID(r.Context())
		if caregiverID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req setStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		m, err := svc.SetStatus(r.Context(), chi.URLParam(r, "medicationID"), caregiverID, req.Status)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ToResponse(m))
	}
}

// upcomingHandler godoc
// @Summary Próximas dosis
// @Description Medicaciones activas del cuidador con próxima dosis dentro de las siguientes `hours` horas, ordenadas por hora.
// @Tags medications
// @Produce json
// @Param X-Debug-Caregiver-ID header string false "Solo en modo dev"
// @Param hours query int false "Ventana en horas (1-168). Por defecto 24"
// @Success 200 {array} MedicationResponse
// @Failure 400 {string} string "hours inválido"
// @Failure 401 {string} string "unauthorized"
// @Router /medications/upcoming [get]
func upcomingHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caregiverID := middleware.CaregiverID(r.Context())
		if caregiverID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		hours := defaultUpcomingHours
		if v := strings.TrimSpace(r.URL.Query().Get("hours")); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > 168 {
				http.Error(w, "hours must be between 1 and 168", http.StatusBadRequest)
				return
			}
			hours = n
		}

		items, err := svc.Upcoming(r.Context(), caregiverID, time.Duration(hours)*time.Hour)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponses(items))
	}
}

func ToResponse(m Medication) MedicationResponse {
	return MedicationResponse{
		ID:            m.ID,
		ElderlyID:     m.ElderlyID,
		Name:          m.Name,
		Dosage:        m.Dosage,
		Unit:          m.Unit,
		Instructions:  m.Instructions,
		Frequency:     m.Schedule.Frequency,
		StartDate:     m.Schedule.StartDate,
		EndDate:       m.Schedule.EndDate,
		Status:        m.Status,
		LastTaken:     m.LastTaken,
		NextDose:      m.NextDose,
		TotalDoses:    m.TotalDoses,
		TakenDoses:    m.TakenDoses,
		AdherenceRate: m.AdherenceRate,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func toResponses(items []Medication) []MedicationResponse {
	out := make([]MedicationResponse, 0, len(items))
	for _, m := range items {
		out = append(out, ToResponse(m))
	}
	return out
}

func toDoseResult(res DoseResult) doseResultResponse {
	return doseResultResponse{
		Dose:       doses.ToResponse(res.Dose),
		Medication: ToResponse(res.Medication),
	}
}

func optionalTime(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, adherence.ErrInvalidFrequency), errors.Is(err, elderly.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrForbidden), errors.Is(err, elderly.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotFound), errors.Is(err, elderly.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrNotActive), errors.Is(err, ErrNothingScheduled), errors.Is(err, ErrConcurrentUpdate):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
