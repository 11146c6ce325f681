package doses

import (
	"time"

	"medicare-adherence/internal/domain/adherence"
)

// Record es una ocurrencia de dosis ya resuelta (taken, delayed, missed o skipped).
// El log es append-only: no hay update ni delete.
type Record struct {
	ID           string
	MedicationID string
	ElderlyID    string
	CaregiverID  string

	adherence.DoseOccurrence

	Source     Source
	RecordedAt time.Time
}

// Occurrences proyecta los records al tipo del motor.
func Occurrences(recs []Record) []adherence.DoseOccurrence {
	out := make([]adherence.DoseOccurrence, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.DoseOccurrence)
	}
	return out
}
