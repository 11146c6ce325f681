package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"medicare-adherence/internal/domain/doses"
	"medicare-adherence/internal/domain/medications"
)

// Ledger guarda medicaciones y log de dosis bajo un mismo lock, así
// RecordDose es atómico igual que la transacción de Postgres.
type Ledger struct {
	mu    sync.RWMutex
	meds  map[string]medications.Medication
	log   []doses.Record
	index map[string]int // dose id -> posición en log
}

func NewLedger() *Ledger {
	return &Ledger{
		meds:  make(map[string]medications.Medication),
		index: make(map[string]int),
	}
}

func (l *Ledger) Medications() medications.Repository { return &medicationRepo{l: l} }
func (l *Ledger) Doses() doses.Repository             { return &doseRepo{l: l} }

type medicationRepo struct{ l *Ledger }

func (r *medicationRepo) Create(ctx context.Context, m medications.Medication) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	if strings.TrimSpace(m.ID) == "" {
		return errors.New("medication id required")
	}
	if _, exists := r.l.meds[m.ID]; exists {
		return errors.New("medication already exists")
	}
	r.l.meds[m.ID] = m
	return nil
}

func (r *medicationRepo) GetByID(ctx context.Context, id string) (medications.Medication, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()

	m, ok := r.l.meds[id]
	if !ok {
		return medications.Medication{}, medications.ErrNotFound
	}
	return m, nil
}

func (r *medicationRepo) ListByElderly(ctx context.Context, elderlyID string) ([]medications.Medication, error) {
	return r.list(func(m medications.Medication) bool { return m.ElderlyID == elderlyID }, byCreated, 0), nil
}

func (r *medicationRepo) ListUpcoming(ctx context.Context, caregiverID string, from, to time.Time) ([]medications.Medication, error) {
	return r.list(func(m medications.Medication) bool {
		return m.CaregiverID == caregiverID &&
			m.Status == medications.StatusActive &&
			m.NextDose != nil &&
			!m.NextDose.Before(from) && !m.NextDose.After(to)
	}, byNextDose, 0), nil
}

func (r *medicationRepo) ListDue(ctx context.Context, before time.Time, limit int) ([]medications.Medication, error) {
	return r.list(func(m medications.Medication) bool {
		return m.Status == medications.StatusActive && m.NextDose != nil && !m.NextDose.After(before)
	}, byNextDose, limit), nil
}

func (r *medicationRepo) Update(ctx context.Context, expectedVersion int64, m medications.Medication) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	cur, ok := r.l.meds[m.ID]
	if !ok {
		return medications.ErrNotFound
	}
	if cur.Version != expectedVersion {
		return medications.ErrConflict
	}
	r.l.meds[m.ID] = m
	return nil
}

func (r *medicationRepo) RecordDose(ctx context.Context, expectedVersion int64, updated medications.Medication, rec doses.Record) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	cur, ok := r.l.meds[updated.ID]
	if !ok {
		return medications.ErrNotFound
	}
	if cur.Version != expectedVersion {
		return medications.ErrConflict
	}
	if rec.MedicationID != updated.ID {
		return errors.New("dose does not belong to medication")
	}
	if _, dup := r.l.index[rec.ID]; dup {
		return errors.New("dose already exists")
	}

	r.l.meds[updated.ID] = updated
	r.l.index[rec.ID] = len(r.l.log)
	r.l.log = append(r.l.log, rec)
	return nil
}

func byCreated(a, b medications.Medication) bool { return a.CreatedAt.Before(b.CreatedAt) }
func byNextDose(a, b medications.Medication) bool { return a.NextDose.Before(*b.NextDose) }

func (r *medicationRepo) list(keep func(medications.Medication) bool, less func(a, b medications.Medication) bool, limit int) []medications.Medication {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()

	out := make([]medications.Medication, 0)
	for _, m := range r.l.meds {
		if keep(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

type doseRepo struct{ l *Ledger }

func (r *doseRepo) GetByID(ctx context.Context, id string) (doses.Record, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()

	i, ok := r.l.index[id]
	if !ok {
		return doses.Record{}, doses.ErrNotFound
	}
	return r.l.log[i], nil
}

func (r *doseRepo) List(ctx context.Context, filter doses.Filter) ([]doses.Record, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()

	out := make([]doses.Record, 0)
	for _, rec := range r.l.log {
		if filter.Matches(rec) {
			out = append(out, rec)
		}
	}

	// scheduled_time desc (más reciente primero)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScheduledTime.After(out[j].ScheduledTime)
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
