package doses

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("dose not found")
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(ctx context.Context, id string) (Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Record{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

// List exige al menos medicación o paciente; nunca lista el log completo.
func (s *Service) List(ctx context.Context, filter Filter) ([]Record, error) {
	if filter.MedicationID == "" && filter.ElderlyID == "" {
		return nil, ErrInvalidInput
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, ErrInvalidInput
	}
	for _, st := range filter.Statuses {
		if !st.Terminal() {
			return nil, ErrInvalidInput
		}
	}
	if filter.Limit < 0 {
		return nil, ErrInvalidInput
	}
	return s.repo.List(ctx, filter)
}
