package reports

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"

	"medicare-adherence/internal/domain/adherence"
	"medicare-adherence/internal/domain/doses"
	"medicare-adherence/internal/domain/elderly"
	"medicare-adherence/internal/domain/medications"
)

var ErrInvalidInput = errors.New("invalid input")

const (
	DefaultWindow      = 30 * 24 * time.Hour
	DefaultTrendDays   = 7
	SummaryTrendDays   = 30
	MaxTrendDays       = 366
	DefaultAlertsSince = 7 * 24 * time.Hour
)

type DoseLog interface {
	List(ctx context.Context, filter doses.Filter) ([]doses.Record, error)
}

type Patients interface {
	Authorize(ctx context.Context, elderlyID, caregiverID string) (elderly.Patient, error)
}

type Medications interface {
	Authorize(ctx context.Context, id, caregiverID string) (medications.Medication, error)
	ListByElderly(ctx context.Context, elderlyID, caregiverID string) ([]medications.Medication, error)
}

// Service es el lado de lectura: todo se re-deriva del log de dosis.
type Service struct {
	log      DoseLog
	patients Patients
	meds     Medications
	now      func() time.Time
}

func NewService(log DoseLog, patients Patients, meds Medications) *Service {
	return &Service{
		log:      log,
		patients: patients,
		meds:     meds,
		now:      time.Now,
	}
}

// window aplica el default de los últimos 30 días.
func (s *Service) window(from, to *time.Time) (Window, error) {
	w := Window{To: s.now()}
	if to != nil {
		w.To = *to
	}
	w.From = w.To.Add(-DefaultWindow)
	if from != nil {
		w.From = *from
	}
	if w.To.Before(w.From) {
		return Window{}, ErrInvalidInput
	}
	return w, nil
}

func (s *Service) ElderlySummary(ctx context.Context, caregiverID, elderlyID string, from, to *time.Time) (ElderlyReport, error) {
	if _, err := s.patients.Authorize(ctx, elderlyID, caregiverID); err != nil {
		return ElderlyReport{}, err
	}
	w, err := s.window(from, to)
	if err != nil {
		return ElderlyReport{}, err
	}

	recs, err := s.log.List(ctx, doses.Filter{ElderlyID: elderlyID, From: &w.From, To: &w.To})
	if err != nil {
		return ElderlyReport{}, err
	}
	sum := adherence.Aggregate(doses.Occurrences(recs), w.From, w.To)

	trend, err := s.trend(ctx, elderlyID, SummaryTrendDays, adherence.DayOf(w.To.UTC()), time.UTC)
	if err != nil {
		return ElderlyReport{}, err
	}

	return ElderlyReport{
		ElderlyID: elderlyID,
		Window:    w,
		Summary:   sum,
		Tier:      adherence.TierOf(sum.OverallRatePercent),
		Trend:     trend,
	}, nil
}

func (s *Service) MedicationAdherence(ctx context.Context, caregiverID, medicationID string, from, to *time.Time) (MedicationReport, error) {
	m, err := s.meds.Authorize(ctx, medicationID, caregiverID)
	if err != nil {
		return MedicationReport{}, err
	}
	w, err := s.window(from, to)
	if err != nil {
		return MedicationReport{}, err
	}

	recs, err := s.log.List(ctx, doses.Filter{MedicationID: medicationID, From: &w.From, To: &w.To})
	if err != nil {
		return MedicationReport{}, err
	}
	sum := adherence.Aggregate(doses.Occurrences(recs), w.From, w.To)

	return MedicationReport{
		Medication: m,
		Window:     w,
		Summary:    sum,
		Tier:       adherence.TierOf(sum.OverallRatePercent),
		Logs:       recs,
	}, nil
}

// Trend devuelve exactamente days puntos, del más viejo al más nuevo.
// end nil = hoy en loc.
func (s *Service) Trend(ctx context.Context, caregiverID, elderlyID string, days int, end *adherence.CalendarDay, loc *time.Location) ([]adherence.TrendPoint, error) {
	if days < 1 || days > MaxTrendDays {
		return nil, ErrInvalidInput
	}
	if loc == nil {
		loc = time.UTC
	}
	if _, err := s.patients.Authorize(ctx, elderlyID, caregiverID); err != nil {
		return nil, err
	}

	endDay := adherence.DayOf(s.now().In(loc))
	if end != nil {
		endDay = *end
	}
	return s.trend(ctx, elderlyID, days, endDay, loc)
}

func (s *Service) trend(ctx context.Context, elderlyID string, days int, end adherence.CalendarDay, loc *time.Location) ([]adherence.TrendPoint, error) {
	from := end.AddDays(-(days - 1)).Start(loc)
	to := end.AddDays(1).Start(loc).Add(-time.Nanosecond)

	recs, err := s.log.List(ctx, doses.Filter{ElderlyID: elderlyID, From: &from, To: &to})
	if err != nil {
		return nil, err
	}
	return adherence.TrendPoints(doses.Occurrences(recs), days, end, loc), nil
}

// Alerts lista las dosis missed/delayed de las últimas since horas con severidad
// >= minSeverity, críticas primero y, a igual severidad, las más viejas primero.
func (s *Service) Alerts(ctx context.Context, caregiverID, elderlyID string, since time.Duration, minSeverity adherence.AlertSeverity) ([]Alert, error) {
	if since <= 0 {
		return nil, ErrInvalidInput
	}
	meds, err := s.meds.ListByElderly(ctx, elderlyID, caregiverID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(meds))
	for _, m := range meds {
		names[m.ID] = m.Name
	}

	now := s.now()
	from := now.Add(-since)
	recs, err := s.log.List(ctx, doses.Filter{
		ElderlyID: elderlyID,
		From:      &from,
		To:        &now,
		Statuses:  []adherence.DoseStatus{adherence.StatusMissed, adherence.StatusDelayed},
	})
	if err != nil {
		return nil, err
	}

	out := make([]Alert, 0, len(recs))
	for _, r := range recs {
		sev, ok := adherence.Severity(r.ScheduledTime, r.Status, now)
		if !ok || sev.Rank() < minSeverity.Rank() {
			continue
		}
		out = append(out, Alert{
			DoseID:         r.ID,
			MedicationID:   r.MedicationID,
			MedicationName: names[r.MedicationID],
			ScheduledTime:  r.ScheduledTime,
			Status:         r.Status,
			Severity:       sev,
			ElapsedMinutes: int(now.Sub(r.ScheduledTime) / time.Minute),
		})
	}

	slices.SortStableFunc(out, func(a, b Alert) int {
		if c := cmp.Compare(b.Severity.Rank(), a.Severity.Rank()); c != 0 {
			return c
		}
		return a.ScheduledTime.Compare(b.ScheduledTime)
	})
	return out, nil
}
