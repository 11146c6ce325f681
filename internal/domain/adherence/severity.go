package adherence

import "time"

// Umbrales de escalamiento (horas transcurridas desde ScheduledTime).
const (
	lowUpTo    = 2 * time.Hour
	mediumUpTo = 6 * time.Hour
	highUpTo   = 24 * time.Hour
)

// Severity es función pura del tiempo transcurrido: se recalcula en cada lectura
// y nunca se persiste. Solo missed y delayed generan alerta.
func Severity(scheduledTime time.Time, status DoseStatus, evaluationNow time.Time) (AlertSeverity, bool) {
	if status != StatusMissed && status != StatusDelayed {
		return "", false
	}

	elapsed := evaluationNow.Sub(scheduledTime)
	switch {
	case elapsed <= lowUpTo:
		return SeverityLow, true
	case elapsed <= mediumUpTo:
		return SeverityMedium, true
	case elapsed <= highUpTo:
		return SeverityHigh, true
	default:
		return SeverityCritical, true
	}
}
