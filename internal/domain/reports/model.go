package reports

import (
	"time"

	"medicare-adherence/internal/domain/adherence"
	"medicare-adherence/internal/domain/doses"
	"medicare-adherence/internal/domain/medications"
)

type Window struct {
	From time.Time
	To   time.Time
}

type ElderlyReport struct {
	ElderlyID string
	Window    Window
	Summary   adherence.Summary
	Tier      adherence.Tier
	Trend     []adherence.TrendPoint
}

type MedicationReport struct {
	Medication medications.Medication
	Window     Window
	Summary    adherence.Summary
	Tier       adherence.Tier
	Logs       []doses.Record
}

// Alert es una dosis missed/delayed con su severidad al momento de la consulta.
// No se guarda: la severidad cambia con el reloj.
type Alert struct {
	DoseID         string
	MedicationID   string
	MedicationName string
	ScheduledTime  time.Time
	Status         adherence.DoseStatus
	Severity       adherence.AlertSeverity
	ElapsedMinutes int
}
