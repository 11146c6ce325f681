package elderly

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("elderly not found")
	ErrForbidden    = errors.New("forbidden")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	FirstName        string
	LastName         string
	DateOfBirth      *time.Time
	Phone            string
	EmergencyContact string
	Notes            string
}

func (s *Service) Create(ctx context.Context, caregiverID string, in CreateInput) (Patient, error) {
	if strings.TrimSpace(caregiverID) == "" {
		return Patient{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.FirstName) == "" {
		return Patient{}, ErrInvalidInput
	}

	now := s.now()
	if in.DateOfBirth != nil && in.DateOfBirth.After(now) {
		return Patient{}, ErrInvalidInput
	}

	p := Patient{
		ID:               uuid.NewString(),
		CaregiverID:      caregiverID,
		FirstName:        strings.TrimSpace(in.FirstName),
		LastName:         strings.TrimSpace(in.LastName),
		DateOfBirth:      in.DateOfBirth,
		Phone:            strings.TrimSpace(in.Phone),
		EmergencyContact: strings.TrimSpace(in.EmergencyContact),
		Notes:            strings.TrimSpace(in.Notes),
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Patient{}, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Patient, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Patient{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByCaregiver(ctx context.Context, caregiverID string) ([]Patient, error) {
	return s.repo.ListByCaregiver(ctx, caregiverID)
}

// UpdateInput usa punteros para PATCH: nil = no tocar.
type UpdateInput struct {
	FirstName        *string
	LastName         *string
	DateOfBirth      OptionalDate
	Phone            *string
	EmergencyContact *string
	Notes            *string
	IsActive         *bool
}

// OptionalDate distingue "no enviado" de "null" (limpiar).
type OptionalDate struct {
	Present bool
	Value   *time.Time
}

func (s *Service) UpdateProfile(ctx context.Context, id, caregiverID string, in UpdateInput) (Patient, error) {
	p, err := s.Authorize(ctx, id, caregiverID)
	if err != nil {
		return Patient{}, err
	}

	if in.FirstName != nil {
		v := strings.TrimSpace(*in.FirstName)
		if v == "" {
			return Patient{}, ErrInvalidInput
		}
		p.FirstName = v
	}
	if in.LastName != nil {
		p.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.DateOfBirth.Present {
		if in.DateOfBirth.Value != nil && in.DateOfBirth.Value.After(s.now()) {
			return Patient{}, ErrInvalidInput
		}
		p.DateOfBirth = in.DateOfBirth.Value
	}
	if in.Phone != nil {
		p.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.EmergencyContact != nil {
		p.EmergencyContact = strings.TrimSpace(*in.EmergencyContact)
	}
	if in.Notes != nil {
		p.Notes = strings.TrimSpace(*in.Notes)
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}

	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return Patient{}, err
	}
	return p, nil
}

// TouchLastMedication solo avanza: una toma vieja registrada tarde no pisa una más nueva.
func (s *Service) TouchLastMedication(ctx context.Context, id string, at time.Time) error {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.LastMedicationTaken != nil && !at.After(*p.LastMedicationTaken) {
		return nil
	}
	return s.repo.TouchLastMedication(ctx, id, at)
}
