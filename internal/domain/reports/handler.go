package reports

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
	"medicare-adherence/internal/domain/medications"
	"medicare-adherence/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/elderly/{elderlyID}/adherence", elderlyAdherenceHandler(svc))
	r.Get("/elderly/{elderlyID}/adherence/trend", trendHandler(svc))
	r.Get("/elderly/{elderlyID}/alerts", alertsHandler(svc))
	r.Get("/medications/{medicationID}/adherence", medicationAdherenceHandler(svc))
}

type windowResponse struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

type elderlyAdherenceResponse struct {
	ElderlyID string                 `json:"elderly_id"`
	Window    windowResponse         `json:"window"`
	Summary   adherence.Summary      `json:"summary"`
	Tier      adherence.Tier         `json:"tier"`
	Trend     []adherence.TrendPoint `json:"trend"`
}

type medicationAdherenceResponse struct {
	Medication medications.MedicationResponse `json:"medication"`
	Window     windowResponse                 `json:"window"`
	Summary    adherence.Summary              `json:"summary"`
	Tier       adherence.Tier                 `json:"tier"`
	Logs       []doses.Response               `json:"logs"`
}

type alertResponse struct {
	DoseOccurrenceID string                  `json:"dose_occurrence_id"`
	MedicationID     string                  `json:"medication_id"`
	MedicationName   string                  `json:"medication_name"`
	ScheduledTime    time.Time               `json:"scheduled_time"`
	Status           adherence.DoseStatus    `json:"status"`
	Severity         adherence.AlertSeverity `json:"severity"`
	ElapsedMinutes   int                     `json:"elapsed_minutes"`
}

// elderlyAdherenceHandler godoc
// @Summary Adherencia de un paciente
// @Description Resumen (total, taken, missed, delayed, skipped, overall_rate_percent) en la ventana [from, to], tier y tendencia diaria de 30 días. Sin from/to: últimos 30 días. overall_rate_percent es null cuando no hay dosis.
// @Tags reports
// @Produce json
// @Param X-Debug-Caregiver-ID header string false "Solo en modo dev"
// @Param elderlyID path string true "ID del paciente"
// @Param from query string false "Inicio de ventana (RFC3339)"
// @Param to query string false "Fin de ventana (RFC3339)"
// @Success 200 {object} elderlyAdherenceResponse
// @Failure 400 {string} string "ventana inválida"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "elderly not found"
// @Router /elderly/{elderlyID}/adherence [get]
func elderlyAdherenceHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caregiverID := middleware.CaregiverID(r.Context())
		if caregiverID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		from, to, err := parseWindow(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		rep, err := svc.ElderlySummary(r.Context(), caregiverID, chi.URLParam(r, "elderlyID"), from, to)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, elderlyAdherenceResponse{
			ElderlyID: rep.ElderlyID,
			Window:    windowResponse(rep.Window),
			Summary:   rep.Summary,
			Tier:      rep.Tier,
			Trend:     rep.Trend,
		})
	}
}

// medicationAdherenceHandler godoc
// @Summary Adherencia de una medicación
// @Description Cabecera de la medicación, resumen de la ventana y el log de dosis (más reciente primero).
// @Tags reports
// @Produce json
// @Param X-Debug-Caregiver-ID header string false "Solo en modo dev"
// @Param medicationID path string true "ID de la medicación"
// @Param from query string false "Inicio de ventana (RFC3339)"
// @Param to query string false "Fin de ventana (RFC3339)"
// @Success 200 {object} medicationAdherenceResponse
// @Failure 400 {string} string "ventana inválida"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "medication not found"
// @Router /medications/{medicationID}/adherence [get]
func medicationAdherenceHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caregiverID := middleware.CaregiverID(r.Context())
		if caregiverID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		from, to, err := parseWindow(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		rep, err := svc.MedicationAdherence(r.Context(), caregiverID, chi.URLParam(r, "medicationID"), from, to)
		if err != nil {
			writeError(w, err)
			return
		}

		logs := make([]doses.Response, 0, len(rep.Logs))
		for _, rec := range rep.Logs {
			logs = append(logs, doses.ToResponse(rec))
		}
		writeJSON(w, http.StatusOK, medicationAdherenceResponse{
			Medication: medications.ToResponse(rep.Medication),
			Window:     windowResponse(rep.Window),
			Summary:    rep.Summary,
			Tier:       rep.Tier,
			Logs:       logs,
		})
	}
}

// trendHandler godoc
// @Summary Tendencia diaria de adherencia
// @Description Devuelve exactamente `days` puntos consecutivos terminando en `end`, del más viejo al más nuevo. Los días se cortan en la zona `tz` (default UTC). rate_percent es null en días sin dosis.
// @Tags reports
// @Produce json
// @Param X-Debug-Caregiver-ID header string false "Solo en modo dev"
// @Param elderlyID path string true "ID del paciente"
// @Param days query int false "Cantidad de días (1-366). Por defecto 7"
// @Param end query string false "Último día (YYYY-MM-DD). Por defecto hoy en tz"
// @Param tz query string false "Zona IANA, ej: America/Lima"
// @Success 200 {array} adherence.TrendPoint
// @Failure 400 {string} string "parámetros inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "elderly not found"
// @Router /elderly/{elderlyID}/adherence/trend [get]
func trendHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caregiverID := middleware.CaregiverID(r.Context())
		if caregiverID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		q := r.URL.Query()

		days := DefaultTrendDays
		if v := strings.TrimSpace(q.Get("days")); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				http.Error(w, "days must be an integer", http.StatusBadRequest)
				return
			}
			days = n
		}

		loc := time.UTC
		if v := strings.TrimSpace(q.Get("tz")); v != "" {
			l, err := time.LoadLocation(v)
			if err != nil {
				http.Error(w, "unknown tz", http.StatusBadRequest)
				return
			}
			loc = l
		}

		var end *adherence.CalendarDay
		if v := strings.TrimSpace(q.Get("end")); v != "" {
			d, err := adherence.ParseDay(v)
			if err != nil {
				http.Error(w, "end must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			end = &d
		}

		points, err := svc.Trend(r.Context(), caregiverID, chi.URLParam(r, "elderlyID"), days, end, loc)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, points)
	}
}

// alertsHandler godoc
// @Summary Alertas de dosis
// @Description Dosis missed/delayed de las últimas `since_hours` horas con su severidad actual (low ≤2h, medium ≤6h, high ≤24h, critical >24h). Críticas primero.
// @Tags reports
// @Produce json
// @Param X-Debug-Caregiver-ID header string false "Solo en modo dev"
// @Param elderlyID path string true "ID del paciente"
// @Param since_hours query int false "Ventana hacia atrás en horas. Por defecto 168"
// @Param min_severity query string false "low | medium | high | critical"
// @Success 200 {array} alertResponse
// @Failure 400 {string} string "parámetros inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "elderly not found"
// @Router /elderly/{elderlyID}/alerts [get]
func alertsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caregiverID := middleware.CaregiverID(r.Context())
		if caregiverID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		q := r.URL.Query()

		since := DefaultAlertsSince
		if v := strings.TrimSpace(q.Get("since_hours")); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				http.Error(w, "since_hours must be a positive integer", http.StatusBadRequest)
				return
			}
			since = time.Duration(n) * time.Hour
		}

		minSev := adherence.SeverityLow
		if v := strings.TrimSpace(q.Get("min_severity")); v != "" {
			s, ok := adherence.ParseSeverity(v)
			if !ok {
				http.Error(w, "min_severity must be low, medium, high or critical", http.StatusBadRequest)
				return
			}
			minSev = s
		}

		alerts, err := svc.Alerts(r.Context(), caregiverID, chi.URLParam(r, "elderlyID"), since, minSev)
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]alertResponse, 0, len(alerts))
		for _, a := range alerts {
			out = append(out, alertResponse{
				DoseOccurrenceID: a.DoseID,
				MedicationID:     a.MedicationID,
				MedicationName:   a.MedicationName,
				ScheduledTime:    a.ScheduledTime,
				Status:           a.Status,
				Severity:         a.Severity,
				ElapsedMinutes:   a.ElapsedMinutes,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func parseWindow(r *http.Request) (*time.Time, *time.Time, error) {
	q := r.URL.Query()
	var out [2]*time.Time
	for i, key := range []string{"from", "to"} {
		v := strings.TrimSpace(q.Get(key))
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, nil, errors.New(key + " must be RFC3339")
		}
		out[i] = &t
	}
	return out[0], out[1], nil
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, elderly.ErrForbidden), errors.Is(err, medications.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, elderly.ErrNotFound), errors.Is(err, medications.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
