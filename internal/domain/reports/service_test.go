package reports

import (
	"context"
	"testing"
	"time"

	"medicare-adherence/internal/domain/adherence"
	"medicare-adherence/internal/domain/doses"
	"medicare-adherence/internal/domain/elderly"
	"medicare-adherence/internal/domain/medications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLog struct{ recs []doses.Record }

func (f *fakeLog) List(_ context.Context, filter doses.Filter) ([]doses.Record, error) {
	out := []doses.Record{}
	for _, r := range f.recs {
		if filter.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakePatients struct{}

func (fakePatients) Authorize(_ context.Context, elderlyID, caregiverID string) (elderly.Patient, error) {
	if elderlyID != "e-1" {
		return elderly.Patient{}, elderly.ErrNotFound
	}
	if caregiverID != "cg-1" {
		return elderly.Patient{}, elderly.ErrForbidden
	}
	return elderly.Patient{ID: elderlyID, CaregiverID: caregiverID}, nil
}

type fakeMeds struct{}

var med = medications.Medication{ID: "m-1", ElderlyID: "e-1", CaregiverID: "cg-1", Name: "Enalapril"}

func (fakeMeds) Authorize(_ context.Context, id, caregiverID string) (medications.Medication, error) {
	if id != med.ID {
		return medications.Medication{}, medications.ErrNotFound
	}
	if caregiverID != med.CaregiverID {
		return medications.Medication{}, medications.ErrForbidden
	}
	return med, nil
}

func (fakeMeds) ListByElderly(ctx context.Context, elderlyID, caregiverID string) ([]medications.Medication, error) {
	if _, err := (fakePatients{}).Authorize(ctx, elderlyID, caregiverID); err != nil {
		return nil, err
	}
	return []medications.Medication{med}, nil
}

var now = time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)

func dose(id string, at time.Time, st adherence.DoseStatus) doses.Record {
	return doses.Record{
		ID:             id,
		MedicationID:   "m-1",
		ElderlyID:      "e-1",
		DoseOccurrence: adherence.DoseOccurrence{ScheduledTime: at, Status: st},
	}
}

func newTestService(recs ...doses.Record) *Service {
	svc := NewService(&fakeLog{recs: recs}, fakePatients{}, fakeMeds{})
	svc.now = func() time.Time { return now }
	return svc
}

func TestElderlySummary_DefaultWindow(t *testing.T) {
	svc := newTestService(
		dose("a", now.Add(-48*time.Hour), adherence.StatusTaken),
		dose("b", now.Add(-36*time.Hour), adherence.StatusTaken),
		dose("c", now.Add(-24*time.Hour), adherence.StatusTaken),
		dose("d", now.Add(-12*time.Hour), adherence.StatusMissed),
		// fuera de los 30 días
		dose("old", now.AddDate(0, 0, -40), adherence.StatusMissed),
	)

	rep, err := svc.ElderlySummary(context.Background(), "cg-1", "e-1", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-DefaultWindow), rep.Window.From)
	assert.Equal(t, now, rep.Window.To)
	assert.Equal(t, 4, rep.Summary.Total)
	require.NotNil(t, rep.Summary.OverallRatePercent)
	assert.Equal(t, 75, *rep.Summary.OverallRatePercent)
	assert.Equal(t, adherence.TierFair, rep.Tier)

	require.Len(t, rep.Trend, SummaryTrendDays)
	assert.Equal(t, adherence.DayOf(now), rep.Trend[len(rep.Trend)-1].Date)
}

func TestElderlySummary_EmptyIsUnknown(t *testing.T) {
	svc := newTestService()
	rep, err := svc.ElderlySummary(context.Background(), "cg-1", "e-1", nil, nil)
	require.NoError(t, err)
	assert.Nil(t, rep.Summary.OverallRatePercent)
	assert.Equal(t, adherence.TierUnknown, rep.Tier)
}

func TestElderlySummary_Rejects(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.ElderlySummary(ctx, "cg-2", "e-1", nil, nil)
	assert.ErrorIs(t, err, elderly.ErrForbidden)

	from, to := now, now.Add(-time.Hour)
	_, err = svc.ElderlySummary(ctx, "cg-1", "e-1", &from, &to)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMedicationAdherence(t *testing.T) {
	svc := newTestService(
		dose("a", now.Add(-3*time.Hour), adherence.StatusDelayed),
		dose("b", now.Add(-2*time.Hour), adherence.StatusTaken),
	)

	rep, err := svc.MedicationAdherence(context.Background(), "cg-1", "m-1", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Enalapril", rep.Medication.Name)
	assert.Equal(t, 2, rep.Summary.Total)
	assert.Equal(t, 1, rep.Summary.Delayed)
	assert.Equal(t, 50, *rep.Summary.OverallRatePercent)
	assert.Len(t, rep.Logs, 2)

	_, err = svc.MedicationAdherence(context.Background(), "cg-1", "m-x", nil, nil)
	assert.ErrorIs(t, err, medications.ErrNotFound)
}

func TestTrend_LengthAndBounds(t *testing.T) {
	svc := newTestService(
		dose("a", time.Date(2024, 1, 30, 9, 0, 0, 0, time.UTC), adherence.StatusTaken),
		dose("b", time.Date(2024, 1, 30, 21, 0, 0, 0, time.UTC), adherence.StatusMissed),
	)
	ctx := context.Background()

	points, err := svc.Trend(ctx, "cg-1", "e-1", 7, nil, nil)
	require.NoError(t, err)
	require.Len(t, points, 7)
	assert.Equal(t, adherence.DayOf(now), points[6].Date)
	assert.Equal(t, 2, points[5].SampleCount)
	assert.Equal(t, 50, *points[5].RatePercent)
	assert.Nil(t, points[6].RatePercent)

	end := adherence.CalendarDay{Year: 2024, Month: time.January, Day: 30}
	points, err = svc.Trend(ctx, "cg-1", "e-1", 1, &end, time.UTC)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 2, points[0].SampleCount)

	_, err = svc.Trend(ctx, "cg-1", "e-1", 0, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAlerts_RankedCriticalFirst(t *testing.T) {
	svc := newTestService(
		dose("low", now.Add(-1*time.Hour), adherence.StatusDelayed),
		dose("crit", now.Add(-30*time.Hour), adherence.StatusMissed),
		dose("high", now.Add(-10*time.Hour), adherence.StatusDelayed),
		dose("taken", now.Add(-40*time.Hour), adherence.StatusTaken),
		dose("skipped", now.Add(-40*time.Hour), adherence.StatusSkipped),
		dose("crit-older", now.Add(-50*time.Hour), adherence.StatusMissed),
		// fuera de since
		dose("ancient", now.AddDate(0, 0, -10), adherence.StatusMissed),
	)

	alerts, err := svc.Alerts(context.Background(), "cg-1", "e-1", DefaultAlertsSince, adherence.SeverityLow)
	require.NoError(t, err)

	ids := make([]string, 0, len(alerts))
	for _, a := range alerts {
		ids = append(ids, a.DoseID)
	}
	assert.Equal(t, []string{"crit-older", "crit", "high", "low"}, ids)
	assert.Equal(t, adherence.SeverityCritical, alerts[0].Severity)
	assert.Equal(t, 50*60, alerts[0].ElapsedMinutes)
	assert.Equal(t, "Enalapril", alerts[0].MedicationName)

	alerts, err = svc.Alerts(context.Background(), "cg-1", "e-1", DefaultAlertsSince, adherence.SeverityHigh)
	require.NoError(t, err)
	assert.Len(t, alerts, 3)

	_, err = svc.Alerts(context.Background(), "cg-2", "e-1", DefaultAlertsSince, adherence.SeverityLow)
	assert.ErrorIs(t, err, elderly.ErrForbidden)
}
