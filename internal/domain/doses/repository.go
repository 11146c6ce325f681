package doses

import (
	"context"
	"time"

	"medicare-adherence/internal/domain/adherence"
)

// Repository es solo lectura: el append ocurre dentro de la transacción
// de medications.Repository.RecordDose.
type Repository interface {
	GetByID(ctx context.Context, id string) (Record, error)
	List(ctx context.Context, filter Filter) ([]Record, error)
}

// Filter sobre scheduled_time (bordes inclusivos). Limit 0 = sin límite.
// Orden: scheduled_time desc.
type Filter struct {
	MedicationID string
	ElderlyID    string
	From         *time.Time
	To           *time.Time
	Statuses     []adherence.DoseStatus
	Limit        int
}

// Matches aplica el filtro en memoria (adapter memory y tests).
func (f Filter) Matches(r Record) bool {
	if f.MedicationID != "" && r.MedicationID != f.MedicationID {
		return false
	}
	if f.ElderlyID != "" && r.ElderlyID != f.ElderlyID {
		return false
	}
	if f.From != nil && r.ScheduledTime.Before(*f.From) {
		return false
	}
	if f.To != nil && r.ScheduledTime.After(*f.To) {
		return false
	}
	if len(f.Statuses) > 0 {
		ok := false
		for _, s := range f.Statuses {
			if r.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}
