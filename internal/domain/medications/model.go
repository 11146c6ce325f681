package medications

import (
	"fmt"
	"time"

	"medicare-adherence/internal/domain/adherence"
	"medicare-adherence/internal/domain/doses"
)

// Medication guarda el esquema y los contadores cacheados.
// Los contadores se derivan del log de dosis y solo cambian junto con un append
// (ver Repository.RecordDose). Version protege esa escritura.
type Medication struct {
	ID          string
	ElderlyID   string
	CaregiverID string

	Name         string
	Dosage       string
	Unit         string
	Instructions string

	Schedule adherence.DoseSchedule
	Status   Status

	LastTaken *time.Time
	NextDose  *time.Time

	TotalDoses    int
	TakenDoses    int
	AdherenceRate *int

	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// withDose aplica un record a una copia de la medicación.
// anchor es el instante desde el que se calcula la próxima dosis: la toma real
// para taken/delayed, el horario previsto para missed/skipped.
func (m Medication) withDose(rec doses.Record, anchor, now time.Time) (Medication, error) {
	m.TotalDoses++
	if rec.Status == adherence.StatusTaken {
		m.TakenDoses++
	}
	m.AdherenceRate = adherence.RatePercent(m.TakenDoses, m.TotalDoses)

	if rec.TakenTime != nil && (m.LastTaken == nil || rec.TakenTime.After(*m.LastTaken)) {
		t := *rec.TakenTime
		m.LastTaken = &t
	}

	next, ok, err := adherence.NextDose(m.Schedule, &anchor, now)
	if err != nil {
		return Medication{}, err
	}
	if ok {
		m.NextDose = &next
	} else {
		m.NextDose = nil
		// as_needed nunca termina; el resto sin próxima dosis = tratamiento cumplido.
		if m.Schedule.Frequency != adherence.FrequencyAsNeeded {
			m.Status = StatusCompleted
		}
	}

	m.Version++
	m.UpdatedAt = now
	return m, nil
}

// reanchored recalcula NextDose como el primer horario del esquema en o después
// de floor. Sin horario posible el tratamiento queda completed (salvo as_needed).
func (m Medication) reanchored(floor time.Time) (Medication, error) {
	next, ok, err := adherence.FirstDoseSince(m.Schedule, floor)
	if err != nil {
		return Medication{}, err
	}
	if ok {
		m.NextDose = &next
		return m, nil
	}
	m.NextDose = nil
	if m.Schedule.Frequency != adherence.FrequencyAsNeeded {
		m.Status = StatusCompleted
	}
	return m, nil
}

// withEndDate aplica un nuevo fin de tratamiento:
// - si la dosis pendiente queda después del fin, el tratamiento se completa;
// - si estaba completed y el fin se extiende, se reabre desde now.
func (m Medication) withEndDate(end *time.Time, now time.Time) (Medication, error) {
	if end != nil && end.Before(m.Schedule.StartDate) {
		return Medication{}, fmt.Errorf("%w: end_date before start_date", ErrInvalidInput)
	}
	m.Schedule.EndDate = end

	if m.Schedule.Frequency == adherence.FrequencyAsNeeded {
		return m, nil
	}

	switch {
	case m.Status == StatusCompleted:
		reopened, err := m.reanchored(now)
		if err != nil {
			return Medication{}, err
		}
		if reopened.NextDose != nil {
			reopened.Status = StatusActive
		}
		return reopened, nil
	case m.NextDose != nil && end != nil && m.NextDose.After(*end):
		m.NextDose = nil
		m.Status = StatusCompleted
	}
	return m, nil
}
