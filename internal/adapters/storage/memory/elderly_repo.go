package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"medicare-adherence/internal/domain/elderly"
)

type elderlyRepo struct {
	mu   sync.RWMutex
	byID map[string]elderly.Patient
}

func NewElderlyRepo() elderly.Repository {
	return &elderlyRepo{
		byID: make(map[string]elderly.Patient),
	}
}

func (r *elderlyRepo) Create(ctx context.Context, p elderly.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("elderly id required")
	}
	if _, exists := r.byID[p.ID]; exists {
		return errors.New("elderly already exists")
	}
	r.byID[p.ID] = p
	return nil
}

func (r *elderlyRepo) Update(ctx context.Context, p elderly.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, exists := r.byID[p.ID]
	if !exists {
		return elderly.ErrNotFound
	}
	// LastMedicationTaken solo lo escribe TouchLastMedication.
	p.LastMedicationTaken = cur.LastMedicationTaken
	r.byID[p.ID] = p
	return nil
}

func (r *elderlyRepo) GetByID(ctx context.Context, id string) (elderly.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return elderly.Patient{}, elderly.ErrNotFound
	}
	return p, nil
}

func (r *elderlyRepo) ListByCaregiver(ctx context.Context, caregiverID string) ([]elderly.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]elderly.Patient, 0)
	for _, p := range r.byID {
		if p.CaregiverID == caregiverID {
			out = append(out, p)
		}
	}

	// Orden estable por created_at asc (solo para consistencia en dev)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *elderlyRepo) TouchLastMedication(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return elderly.ErrNotFound
	}
	if p.LastMedicationTaken == nil || at.After(*p.LastMedicationTaken) {
		p.LastMedicationTaken = &at
	}
	r.byID[id] = p
	return nil
}
