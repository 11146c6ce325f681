package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"medicare-adherence/internal/router"
)

func TestHTTP_EndToEnd_DelayedDoseAndReports(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	caregiverID := "caregiver-1"
	otherID := "caregiver-2"
	now := time.Now().UTC().Truncate(time.Second)
	start := now.Add(-20 * time.Hour)

	// 1) Cuidador registra paciente
	elderlyID := createElderly(t, ts.URL, caregiverID, map[string]any{
		"first_name":    "Rosa",
		"last_name":     "Pérez",
		"date_of_birth": "1941-03-02",
	})

	// 2) Medicación dos veces al día desde hace 20h
	medID := createMedication(t, ts.URL, caregiverID, map[string]any{
		"elderly_id": elderlyID,
		"name":       "Metformina",
		"dosage":     "500",
		"unit":       "mg",
		"frequency":  "twice",
		"start_date": start.Format(time.RFC3339),
	})

	// 3) Primera toma dentro de la gracia: taken
	{
		out := logTaken(t, ts.URL, caregiverID, medID, elderlyID, start.Add(10*time.Minute))
		if out.Dose.Status != "taken" || out.Dose.DelayMinutes != 10 {
			t.Fatalf("expected taken/10, got %s/%d", out.Dose.Status, out.Dose.DelayMinutes)
		}
	}

	// 4) Segunda toma 50 minutos tarde: delayed
	secondScheduled := start.Add(10*time.Minute + 12*time.Hour)
	{
		out := logTaken(t, ts.URL, caregiverID, medID, elderlyID, secondScheduled.Add(50*time.Minute))
		if out.Dose.Status != "delayed" || out.Dose.DelayMinutes != 50 {
			t.Fatalf("expected delayed/50, got %s/%d", out.Dose.Status, out.Dose.DelayMinutes)
		}
		if out.Medication.TotalDoses != 2 || out.Medication.TakenDoses != 1 {
			t.Fatalf("expected counters 2/1, got %d/%d", out.Medication.TotalDoses, out.Medication.TakenDoses)
		}
		if out.Medication.AdherenceRate == nil || *out.Medication.AdherenceRate != 50 {
			t.Fatalf("expected adherence_rate 50, got %v", out.Medication.AdherenceRate)
		}
	}

	// 5) Historial de dosis
	{
		st, body := doReq(t, ts.URL, "GET", "/medications/"+medID+"/doses", caregiverID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list doses, got %d body=%s", st, string(body))
		}
		var list []map[string]any
		mustJSON(t, body, &list)
		if len(list) != 2 {
			t.Fatalf("expected 2 doses, got %d", len(list))
		}
		if list[0]["status"] != "delayed" {
			t.Fatalf("expected newest first, got %v", list[0]["status"])
		}
	}

	// 6) Resumen de adherencia del paciente
	{
		st, body := doReq(t, ts.URL, "GET", "/elderly/"+elderlyID+"/adherence", caregiverID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 adherence, got %d body=%s", st, string(body))
		}
		var rep struct {
			Summary struct {
				Total   int  `json:"total"`
				Taken   int  `json:"taken"`
				Delayed int  `json:"delayed"`
				Rate    *int `json:"overall_rate_percent"`
			} `json:"summary"`
			Tier string `json:"tier"`
		}
		mustJSON(t, body, &rep)
		if rep.Summary.Total != 2 || rep.Summary.Taken != 1 || rep.Summary.Delayed != 1 {
			t.Fatalf("unexpected summary %+v", rep.Summary)
		}
		if rep.Summary.Rate == nil || *rep.Summary.Rate != 50 {
			t.Fatalf("expected rate 50, got %v", rep.Summary.Rate)
		}
		if rep.Tier == "" {
			t.Fatalf("expected tier")
		}
	}

	// 7) Tendencia de 3 días
	{
		st, body := doReq(t, ts.URL, "GET", "/elderly/"+elderlyID+"/adherence/trend?days=3", caregiverID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 trend, got %d body=%s", st, string(body))
		}
		var points []map[string]any
		mustJSON(t, body, &points)
		if len(points) != 3 {
			t.Fatalf("expected 3 trend points, got %d", len(points))
		}
	}

	// 8) Alertas: la dosis delayed tiene más de 6h
	{
		st, body := doReq(t, ts.URL, "GET", "/elderly/"+elderlyID+"/alerts?min_severity=high", caregiverID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 alerts, got %d body=%s", st, string(body))
		}
		var alerts []map[string]any
		mustJSON(t, body, &alerts)
		if len(alerts) != 1 {
			t.Fatalf("expected 1 alert, got %d body=%s", len(alerts), string(body))
		}
		if alerts[0]["severity"] != "high" || alerts[0]["status"] != "delayed" {
			t.Fatalf("unexpected alert %v", alerts[0])
		}
	}

	// 9) Otro cuidador no ve nada
	for _, path := range []string{
		"/elderly/" + elderlyID,
		"/elderly/" + elderlyID + "/adherence",
		"/elderly/" + elderlyID + "/alerts",
		"/medications/" + medID,
		"/medications/" + medID + "/doses",
	} {
		st, _ := doReq(t, ts.URL, "GET", path, otherID, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 for %s, got %d", path, st)
		}
	}

	// 10) Paciente actualizado con la última toma
	{
		st, body := doReq(t, ts.URL, "GET", "/elderly/"+elderlyID, caregiverID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get elderly, got %d", st)
		}
		var p map[string]any
		mustJSON(t, body, &p)
		if p["last_medication_taken"] == nil {
			t.Fatalf("expected last_medication_taken set")
		}
	}

	// 11) Edición de la medicación
	{
		st, body := doReq(t, ts.URL, "PATCH", "/medications/"+medID, caregiverID, map[string]any{
			"name":   "Metformina XR",
			"dosage": "850",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 patch medication, got %d body=%s", st, string(body))
		}
		var m map[string]any
		mustJSON(t, body, &m)
		if m["name"] != "Metformina XR" || m["dosage"] != "850" || m["unit"] != "mg" {
			t.Fatalf("unexpected medication after patch %v", m)
		}

		st, _ = doReq(t, ts.URL, "PATCH", "/medications/"+medID, caregiverID, map[string]any{"end_date": "ayer"})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 invalid end_date, got %d", st)
		}
		st, _ = doReq(t, ts.URL, "PATCH", "/medications/"+medID, otherID, map[string]any{"name": "X"})
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 patch by other caregiver, got %d", st)
		}
	}

	// 12) Métricas expuestas
	{
		st, body := doReq(t, ts.URL, "GET", "/metrics", "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 metrics, got %d", st)
		}
		if !strings.Contains(string(body), `adherence_doses_recorded_total{status="delayed"} 1`) {
			t.Fatalf("expected delayed counter in metrics")
		}
	}
}

func TestHTTP_SweeperRecordsMissedDose(t *testing.T) {
	app := router.Build(router.Options{})
	ts := httptest.NewServer(app.Handler)
	defer ts.Close()

	caregiverID := "caregiver-1"
	start := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)

	elderlyID := createElderly(t, ts.URL, caregiverID, map[string]any{"first_name": "Luis"})
	medID := createMedication(t, ts.URL, caregiverID, map[string]any{
		"elderly_id": elderlyID,
		"name":       "Losartán",
		"frequency":  "once",
		"start_date": start.Format(time.RFC3339),
	})

	// el barrido corre cuando la dosis ya superó el cutoff de 24h
	n, err := app.Medications.SweepMissed(context.Background(), time.Now().Add(25*time.Hour))
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 missed dose, got %d", n)
	}

	st, body := doReq(t, ts.URL, "GET", "/elderly/"+elderlyID+"/alerts", caregiverID, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 alerts, got %d body=%s", st, string(body))
	}
	var alerts []map[string]any
	mustJSON(t, body, &alerts)
	if len(alerts) != 1 || alerts[0]["status"] != "missed" || alerts[0]["medication_id"] != medID {
		t.Fatalf("expected one missed alert, got %s", string(body))
	}
	if alerts[0]["severity"] != "low" {
		t.Fatalf("severity is computed at read time, got %v", alerts[0]["severity"])
	}

	st, body = doReq(t, ts.URL, "GET", "/medications/"+medID+"/doses?statuses=missed", caregiverID, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 doses, got %d body=%s", st, string(body))
	}
	var list []map[string]any
	mustJSON(t, body, &list)
	if len(list) != 1 || list[0]["source"] != "sweeper" {
		t.Fatalf("expected one sweeper dose, got %s", string(body))
	}
}

func TestHTTP_Validation(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	caregiverID := "caregiver-1"
	elderlyID := createElderly(t, ts.URL, caregiverID, map[string]any{"first_name": "Ana"})

	// frecuencia desconocida
	{
		st, body := doReq(t, ts.URL, "POST", "/medications", caregiverID, map[string]any{
			"elderly_id": elderlyID,
			"name":       "X",
			"frequency":  "hourly",
		})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 invalid frequency, got %d body=%s", st, string(body))
		}
	}

	// sin cuidador
	{
		st, _ := doReq(t, ts.URL, "GET", "/elderly", "", nil)
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 without caregiver, got %d", st)
		}
	}

	// severidad desconocida
	{
		st, _ := doReq(t, ts.URL, "GET", "/elderly/"+elderlyID+"/alerts?min_severity=urgent", caregiverID, nil)
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 invalid severity, got %d", st)
		}
	}

	// paciente inexistente
	{
		st, _ := doReq(t, ts.URL, "GET", "/elderly/nope/adherence", caregiverID, nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 unknown elderly, got %d", st)
		}
	}

	// as_needed sin dosis pendiente: skip no aplica
	{
		medID := createMedication(t, ts.URL, caregiverID, map[string]any{
			"elderly_id": elderlyID,
			"name":       "Paracetamol",
			"frequency":  "as_needed",
		})
		st, _ := doReq(t, ts.URL, "POST", "/medications/"+medID+"/skip", caregiverID, map[string]any{})
		if st != http.StatusConflict {
			t.Fatalf("expected 409 skip as_needed, got %d", st)
		}
	}
}

type doseResult struct {
	Dose struct {
		Status       string `json:"status"`
		DelayMinutes int    `json:"delay_minutes"`
	} `json:"dose"`
	Medication struct {
		TotalDoses    int  `json:"total_doses"`
		TakenDoses    int  `json:"taken_doses"`
		AdherenceRate *int `json:"adherence_rate"`
	} `json:"medication"`
}

func createElderly(t *testing.T, baseURL, caregiverID string, body map[string]any) string {
	t.Helper()
	return createAndGetID(t, baseURL, "/elderly", caregiverID, body)
}

func createMedication(t *testing.T, baseURL, caregiverID string, body map[string]any) string {
	t.Helper()
	return createAndGetID(t, baseURL, "/medications", caregiverID, body)
}

func createAndGetID(t *testing.T, baseURL, path, caregiverID string, body map[string]any) string {
	t.Helper()

	st, resBody := doReq(t, baseURL, "POST", path, caregiverID, body)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 POST %s, got %d body=%s", path, st, string(resBody))
	}

	var out struct {
		ID string `json:"id"`
	}
	mustJSON(t, resBody, &out)
	if out.ID == "" {
		t.Fatalf("expected id in response, body=%s", string(resBody))
	}
	return out.ID
}

func logTaken(t *testing.T, baseURL, caregiverID, medID, elderlyID string, takenAt time.Time) doseResult {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/medications/log-taken", caregiverID, map[string]any{
		"medication_id": medID,
		"elderly_id":    elderlyID,
		"taken_at":      takenAt.Format(time.RFC3339),
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 log-taken, got %d body=%s", st, string(body))
	}
	var out doseResult
	mustJSON(t, body, &out)
	return out
}

func mustJSON(t *testing.T, body []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("unmarshal: %v body=%s", err, string(body))
	}
}

func doReq(t *testing.T, baseURL, method, path, caregiverID string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if caregiverID != "" {
		req.Header.Set("X-Debug-Caregiver-ID", caregiverID)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
