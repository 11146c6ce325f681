package medications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"medicare-adherence/internal/domain/adherence"
	"medicare-adherence/internal/domain/doses"
	"medicare-adherence/internal/domain/elderly"
	"medicare-adherence/internal/platform/logger"
	"medicare-adherence/internal/platform/metrics"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("medication not found")
	ErrForbidden         = errors.New("forbidden")
	ErrNotActive         = errors.New("medication is not active")
	ErrNothingScheduled  = errors.New("medication has no scheduled dose")
	ErrConcurrentUpdate  = errors.New("medication was updated concurrently, retry")
	errFutureTakenAt     = fmt.Errorf("%w: taken_at is in the future", ErrInvalidInput)
	errElderlyMismatch   = fmt.Errorf("%w: medication does not belong to elderly", ErrInvalidInput)
	errUnsupportedStatus = fmt.Errorf("%w: status must be active or paused", ErrInvalidInput)
)

const DefaultConflictRetries = 3

// Tolerancia para relojes de clientes adelantados.
const futureTolerance = time.Minute

// Patients es lo que medications necesita del módulo elderly.
type Patients interface {
	Authorize(ctx context.Context, elderlyID, caregiverID string) (elderly.Patient, error)
	TouchLastMedication(ctx context.Context, id string, at time.Time) error
}

type Options struct {
	Policy          adherence.Policy
	ConflictRetries int
	Metrics         metrics.Recorder
	Logger          logger.Logger
}

type Service struct {
	repo     Repository
	patients Patients

	policy  adherence.Policy
	retries int
	metrics metrics.Recorder
	log     logger.Logger

	now func() time.Time
}

func NewService(repo Repository, patients Patients, opts Options) *Service {
	if opts.ConflictRetries <= 0 {
		opts.ConflictRetries = DefaultConflictRetries
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop()
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	return &Service{
		repo:     repo,
		patients: patients,
		policy:   opts.Policy,
		retries:  opts.ConflictRetries,
		metrics:  opts.Metrics,
		log:      opts.Logger,
		now:      time.Now,
	}
}

type CreateInput struct {
	ElderlyID    string
	Name         string
	Dosage       string
	Unit         string
	Instructions string
	Frequency    string
	StartDate    *time.Time
	EndDate      *time.Time
}

func (s *Service) Create(ctx context.Context, caregiverID string, in CreateInput) (Medication, error) {
	if strings.TrimSpace(caregiverID) == "" || strings.TrimSpace(in.Name) == "" {
		return Medication{}, ErrInvalidInput
	}

	freq, err := adherence.ParseFrequency(in.Frequency)
	if err != nil {
		return Medication{}, err
	}

	if _, err := s.patients.Authorize(ctx, in.ElderlyID, caregiverID); err != nil {
		return Medication{}, err
	}

	now := s.now()
	start := now
	if in.StartDate != nil {
		start = *in.StartDate
	}
	if in.EndDate != nil && in.EndDate.Before(start) {
		return Medication{}, fmt.Errorf("%w: end_date before start_date", ErrInvalidInput)
	}

	m := Medication{
		ID:           uuid.NewString(),
		ElderlyID:    in.ElderlyID,
		CaregiverID:  caregiverID,
		Name:         strings.TrimSpace(in.Name),
		Dosage:       strings.TrimSpace(in.Dosage),
		Unit:         strings.TrimSpace(in.Unit),
		Instructions: strings.TrimSpace(in.Instructions),
		Schedule: adherence.DoseSchedule{
			Frequency: freq,
			StartDate: start,
			EndDate:   in.EndDate,
		},
		Status:    StatusActive,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Un start_date viejo no genera historial: solo se siguen los horarios
	// que todavía están dentro del cutoff.
	m, err = m.reanchored(now.Add(-s.policy.MissedCutoff()))
	if err != nil {
		return Medication{}, err
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return Medication{}, err
	}
	return m, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Medication, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Medication{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// Authorize devuelve la medicación si pertenece al cuidador.
func (s *Service) Authorize(ctx context.Context, id, caregiverID string) (Medication, error) {
	m, err := s.GetByID(ctx, id)
	if err != nil {
		return Medication{}, err
	}
	if m.CaregiverID != caregiverID {
		return Medication{}, ErrForbidden
	}
	return m, nil
}

// CaregiverOf es la lookup de ownership que usan doses y reports.
func (s *Service) CaregiverOf(ctx context.Context, id string) (string, error) {
	m, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return m.CaregiverID, nil
}

func (s *Service) ListByElderly(ctx context.Context, elderlyID, caregiverID string) ([]Medication, error) {
	if _, err := s.patients.Authorize(ctx, elderlyID, caregiverID); err != nil {
		return nil, err
	}
	return s.repo.ListByElderly(ctx, elderlyID)
}

// SetStatus pausa o reactiva. completed solo lo pone el motor al terminar el tratamiento.
func (s *Service) SetStatus(ctx context.Context, id, caregiverID string, status Status) (Medication, error) {
	if status != StatusActive && status != StatusPaused {
		return Medication{}, errUnsupportedStatus
	}

	for attempt := 0; attempt < s.retries; attempt++ {
		m, err := s.Authorize(ctx, id, caregiverID)
		if err != nil {
			return Medication{}, err
		}
		if m.Status == StatusCompleted {
			return Medication{}, ErrNotActive
		}
		if m.Status == status {
			return m, nil
		}

		now := s.now()
		expected := m.Version
		resumed := m.Status == StatusPaused && status == StatusActive
		m.Status = status
		if resumed {
			// Los horarios del período pausado no se registran como missed.
			if m, err = m.reanchored(now); err != nil {
				return Medication{}, err
			}
		}
		m.Version++
		m.UpdatedAt = now

		err = s.repo.Update(ctx, expected, m)
		if errors.Is(err, ErrConflict) {
			s.metrics.UpdateConflict()
			continue
		}
		if err != nil {
			return Medication{}, err
		}
		return m, nil
	}
	return Medication{}, ErrConcurrentUpdate
}

// UpdateInput: nil = no tocar. EndDate distingue ausente de null (sin fin).
type UpdateInput struct {
	Name         *string
	Dosage       *string
	Unit         *string
	Instructions *string
	EndDate      OptionalTime
}

// OptionalTime distingue "no enviado" de "null" (limpiar).
type OptionalTime struct {
	Present bool
	Value   *time.Time
}

// Update edita los datos de la medicación. Frecuencia y start_date no se editan:
// cambiarlos reescribiría el significado de las dosis ya registradas.
func (s *Service) Update(ctx context.Context, id, caregiverID string, in UpdateInput) (Medication, error) {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return Medication{}, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
	}

	for attempt := 0; attempt < s.retries; attempt++ {
		m, err := s.Authorize(ctx, id, caregiverID)
		if err != nil {
			return Medication{}, err
		}
		expected := m.Version
		now := s.now()

		if in.Name != nil {
			m.Name = strings.TrimSpace(*in.Name)
		}
		if in.Dosage != nil {
			m.Dosage = strings.TrimSpace(*in.Dosage)
		}
		if in.Unit != nil {
			m.Unit = strings.TrimSpace(*in.Unit)
		}
		if in.Instructions != nil {
			m.Instructions = strings.TrimSpace(*in.Instructions)
		}
		if in.EndDate.Present {
			if m, err = m.withEndDate(in.EndDate.Value, now); err != nil {
				return Medication{}, err
			}
		}

		m.Version++
		m.UpdatedAt = now

		err = s.repo.Update(ctx, expected, m)
		if errors.Is(err, ErrConflict) {
			s.metrics.UpdateConflict()
			continue
		}
		if err != nil {
			return Medication{}, err
		}
		return m, nil
	}
	return Medication{}, ErrConcurrentUpdate
}

type MarkTakenInput struct {
	MedicationID string
	ElderlyID    string // opcional; si viene debe coincidir
	TakenAt      *time.Time
	Notes        string
}

type DoseResult struct {
	Dose       doses.Record
	Medication Medication
}

// MarkTaken registra la toma de la dosis pendiente. Si no hay dosis pendiente
// (as_needed) la toma se registra contra su propio instante.
func (s *Service) MarkTaken(ctx context.Context, caregiverID string, in MarkTakenInput) (DoseResult, error) {
	now := s.now()
	takenAt := now
	if in.TakenAt != nil {
		takenAt = *in.TakenAt
	}
	if takenAt.After(now.Add(futureTolerance)) {
		return DoseResult{}, errFutureTakenAt
	}

	res, err := s.recordWithRetry(ctx, in.MedicationID, caregiverID, func(m Medication) (doses.Record, time.Time, error) {
		if in.ElderlyID != "" && m.ElderlyID != in.ElderlyID {
			return doses.Record{}, time.Time{}, errElderlyMismatch
		}
		scheduled := takenAt
		if m.NextDose != nil {
			scheduled = *m.NextDose
		}
		c := s.policy.Classify(scheduled, &takenAt, now)
		rec := s.newRecord(m, scheduled, &takenAt, c, in.Notes, doses.SourceManual, now)
		return rec, takenAt, nil
	})
	if err != nil {
		return DoseResult{}, err
	}

	// La toma ya quedó registrada; un fallo acá solo deja desactualizado el perfil.
	if err := s.patients.TouchLastMedication(ctx, res.Medication.ElderlyID, takenAt); err != nil {
		s.log.Warn("touch last medication failed", map[string]any{
			"elderly_id": res.Medication.ElderlyID,
			"err":        err,
		})
	}
	return res, nil
}

// Skip registra la omisión intencional de la dosis pendiente.
func (s *Service) Skip(ctx context.Context, caregiverID, medicationID, notes string) (DoseResult, error) {
	now := s.now()
	return s.recordWithRetry(ctx, medicationID, caregiverID, func(m Medication) (doses.Record, time.Time, error) {
		if m.NextDose == nil {
			return doses.Record{}, time.Time{}, ErrNothingScheduled
		}
		scheduled := *m.NextDose
		rec := s.newRecord(m, scheduled, nil, s.policy.Skip(), notes, doses.SourceManual, now)
		return rec, scheduled, nil
	})
}

// buildFn arma el record a partir de la versión recién leída; devuelve también
// el ancla para la próxima dosis.
type buildFn func(m Medication) (doses.Record, time.Time, error)

func (s *Service) recordWithRetry(ctx context.Context, medicationID, caregiverID string, build buildFn) (DoseResult, error) {
	for attempt := 0; attempt < s.retries; attempt++ {
		m, err := s.Authorize(ctx, medicationID, caregiverID)
		if err != nil {
			return DoseResult{}, err
		}
		if m.Status != StatusActive {
			return DoseResult{}, ErrNotActive
		}

		rec, anchor, err := build(m)
		if err != nil {
			return DoseResult{}, err
		}

		res, err := s.commit(ctx, m, rec, anchor)
		if errors.Is(err, ErrConflict) {
			s.metrics.UpdateConflict()
			s.log.Debug("medication update conflict", map[string]any{
				"medication_id": m.ID,
				"attempt":       attempt + 1,
			})
			continue
		}
		if err != nil {
			return DoseResult{}, err
		}
		return res, nil
	}
	return DoseResult{}, ErrConcurrentUpdate
}

func (s *Service) commit(ctx context.Context, m Medication, rec doses.Record, anchor time.Time) (DoseResult, error) {
	updated, err := m.withDose(rec, anchor, rec.RecordedAt)
	if err != nil {
		return DoseResult{}, err
	}
	if err := s.repo.RecordDose(ctx, m.Version, updated, rec); err != nil {
		return DoseResult{}, err
	}
	s.metrics.DoseRecorded(string(rec.Status))
	return DoseResult{Dose: rec, Medication: updated}, nil
}

func (s *Service) newRecord(m Medication, scheduled time.Time, taken *time.Time, c adherence.Classification, notes string, src doses.Source, now time.Time) doses.Record {
	return doses.Record{
		ID:           uuid.NewString(),
		MedicationID: m.ID,
		ElderlyID:    m.ElderlyID,
		CaregiverID:  m.CaregiverID,
		DoseOccurrence: adherence.DoseOccurrence{
			ScheduledTime: scheduled,
			TakenTime:     taken,
			Status:        c.Status,
			DelayMinutes:  c.DelayMinutes,
			Notes:         strings.TrimSpace(notes),
		},
		Source:     src,
		RecordedAt: now,
	}
}

// Upcoming lista las dosis activas del cuidador que vencen en [now, now+within].
func (s *Service) Upcoming(ctx context.Context, caregiverID string, within time.Duration) ([]Medication, error) {
	if strings.TrimSpace(caregiverID) == "" || within <= 0 {
		return nil, ErrInvalidInput
	}
	now := s.now()
	return s.repo.ListUpcoming(ctx, caregiverID, now, now.Add(within))
}
