package doses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"medicare-adherence/internal/domain/adherence"
	"medicare-adherence/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// OwnerLookup resuelve el cuidador dueño de un recurso.
// Se pasa como func para evitar ciclos de imports (medications importa doses).
type OwnerLookup func(ctx context.Context, id string) (string, error)

func RegisterRoutes(r chi.Router, svc *Service, elderlyOwner, medicationOwner OwnerLookup) {
	r.Get("/elderly/{elderlyID}/doses", listDosesHandler(svc, "elderlyID", elderlyOwner, func(f *Filter, id string) { f.ElderlyID = id }))
	r.Get("/medications/{medicationID}/doses", listDosesHandler(svc, "medicationID", medicationOwner, func(f *Filter, id string) { f.MedicationID = id }))
}

// Response es la forma JSON de un Record; la reutilizan medications y reports.
type Response struct {
	ID            string               `json:"id"`
	MedicationID  string               `json:"medication_id"`
	ElderlyID     string               `json:"elderly_id"`
	ScheduledTime time.Time            `json:"scheduled_time"`
	TakenTime     *time.Time           `json:"taken_time,omitempty"`
	Status        adherence.DoseStatus `json:"status"`
	DelayMinutes  int                  `json:"delay_minutes"`
	Notes         string               `json:"notes"`
	Source        Source               `json:"source"`
	RecordedAt    time.Time            `json:"recorded_at"`
}

// listDosesHandler godoc
// @Summary Historial de dosis
// @Description Lista el log de dosis de un paciente (`/elderly/{elderlyID}/doses`) o de una medicación (`/medications/{medicationID}/doses`). Orden: scheduled_time desc.
// @Tags doses
// @Produce json
// @Param X-Debug-Caregiver-ID header string false "Solo en modo dev"
// @Param elderlyID path string true "ID del paciente"
// @Param limit query int false "Máximo de dosis a devolver (1-200). Por defecto 50"
// @Param statuses query string false "CSV de estados (taken,delayed,missed,skipped)"
// @Param from query string false "scheduled_time mínimo (RFC3339)"
// @Param to query string false "scheduled_time máximo (RFC3339)"
// @Success 200 {array} Response
// @Failure 400 {string} string "Parámetros de filtro inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /elderly/{elderlyID}/doses [get]
func listDosesHandler(svc *Service, param string, owner OwnerLookup, scope func(*Filter, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caregiverID := middleware.CaregiverID(r.Context())
		if caregiverID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		id := chi.URLParam(r, param)
		ownerID, err := owner(r.Context(), id)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if ownerID != caregiverID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		filter, err := ParseFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		scope(&filter, id)

		items, err := svc.List(r.Context(), filter)
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]Response, 0, len(items))
		for _, rec := range items {
			out = append(out, ToResponse(rec))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// ParseFilter lee from/to/statuses/limit del query string.
func ParseFilter(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	f := Filter{Limit: DefaultListLimit}

	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxListLimit {
			return Filter{}, errors.New("limit must be between 1 and 200")
		}
		f.Limit = n
	}

	for _, key := range []string{"from", "to"} {
		v := strings.TrimSpace(q.Get(key))
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return Filter{}, errors.New(key + " must be RFC3339")
		}
		if key == "from" {
			f.From = &t
		} else {
			f.To = &t
		}
	}

	if v := strings.TrimSpace(q.Get("statuses")); v != "" {
		for _, s := range strings.Split(v, ",") {
			st := adherence.DoseStatus(strings.ToLower(strings.TrimSpace(s)))
			if !st.Terminal() {
				return Filter{}, errors.New("invalid status: " + s)
			}
			f.Statuses = append(f.Statuses, st)
		}
	}

	return f, nil
}

func ToResponse(rec Record) Response {
	return Response{
		ID:            rec.ID,
		MedicationID:  rec.MedicationID,
		ElderlyID:     rec.ElderlyID,
		ScheduledTime: rec.ScheduledTime,
		TakenTime:     rec.TakenTime,
		Status:        rec.Status,
		DelayMinutes:  rec.DelayMinutes,
		Notes:         rec.Notes,
		Source:        rec.Source,
		RecordedAt:    rec.RecordedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
