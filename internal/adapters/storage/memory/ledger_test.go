package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"medicare-adherence/internal/domain/adherence"
	"medicare-adherence/internal/domain/doses"
	"medicare-adherence/internal/domain/medications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

func seedMedication(t *testing.T, repo medications.Repository) medications.Medication {
	t.Helper()
	next := t0
	m := medications.Medication{
		ID:          "m-1",
		ElderlyID:   "e-1",
		CaregiverID: "cg-1",
		Name:        "Losartán",
		Schedule:    adherence.DoseSchedule{Frequency: adherence.FrequencyOnce, StartDate: t0},
		Status:      medications.StatusActive,
		NextDose:    &next,
		Version:     1,
		CreatedAt:   t0,
	}
	require.NoError(t, repo.Create(context.Background(), m))
	return m
}

func record(id string, at time.Time, st adherence.DoseStatus) doses.Record {
	return doses.Record{
		ID:             id,
		MedicationID:   "m-1",
		ElderlyID:      "e-1",
		DoseOccurrence: adherence.DoseOccurrence{ScheduledTime: at, Status: st},
	}
}

func TestRecordDose_AppliesAtomically(t *testing.T) {
	l := NewLedger()
	meds, log := l.Medications(), l.Doses()
	ctx := context.Background()
	m := seedMedication(t, meds)

	updated := m
	updated.Version = 2
	updated.TotalDoses = 1
	require.NoError(t, meds.RecordDose(ctx, 1, updated, record("d-1", t0, adherence.StatusTaken)))

	// versión vieja: conflicto y nada se escribe
	stale := m
	stale.Version = 2
	stale.TotalDoses = 99
	err := meds.RecordDose(ctx, 1, stale, record("d-2", t0, adherence.StatusTaken))
	assert.ErrorIs(t, err, medications.ErrConflict)

	got, err := meds.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalDoses)

	recs, err := log.List(ctx, doses.Filter{MedicationID: m.ID})
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	_, err = log.GetByID(ctx, "d-2")
	assert.ErrorIs(t, err, doses.ErrNotFound)
}

func TestRecordDose_ConcurrentSameVersionOnlyOneWins(t *testing.T) {
	l := NewLedger()
	meds := l.Medications()
	m := seedMedication(t, meds)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, conflicts := 0, 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			updated := m
			updated.Version = 2
			err := meds.RecordDose(context.Background(), 1, updated, record("d-"+string(rune('a'+i)), t0, adherence.StatusTaken))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
			} else if assert.ErrorIs(t, err, medications.ErrConflict) {
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, 19, conflicts)
}

func TestDoseList_OrderAndLimit(t *testing.T) {
	l := NewLedger()
	meds, log := l.Medications(), l.Doses()
	ctx := context.Background()
	m := seedMedication(t, meds)

	for i, st := range []adherence.DoseStatus{adherence.StatusTaken, adherence.StatusMissed, adherence.StatusDelayed} {
		updated := m
		updated.Version = m.Version + 1
		require.NoError(t, meds.RecordDose(ctx, m.Version, updated, record("d-"+string(rune('0'+i)), t0.AddDate(0, 0, i), st)))
		m = updated
	}

	recs, err := log.List(ctx, doses.Filter{ElderlyID: "e-1", Limit: 2})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "d-2", recs[0].ID)
	assert.Equal(t, "d-1", recs[1].ID)

	recs, err = log.List(ctx, doses.Filter{ElderlyID: "e-1", Statuses: []adherence.DoseStatus{adherence.StatusTaken}})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "d-0", recs[0].ID)
}

func TestMedicationLists(t *testing.T) {
	l := NewLedger()
	meds := l.Medications()
	ctx := context.Background()
	seedMedication(t, meds)

	due, err := meds.ListDue(ctx, t0, 10)
	require.NoError(t, err)
	assert.Len(t, due, 1)

	due, err = meds.ListDue(ctx, t0.Add(-time.Second), 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	up, err := meds.ListUpcoming(ctx, "cg-1", t0.Add(-time.Hour), t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, up, 1)

	up, err = meds.ListUpcoming(ctx, "cg-2", t0.Add(-time.Hour), t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, up)
}

func TestElderlyRepo_TouchKeepsLatest(t *testing.T) {
	repo := NewElderlyRepo()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, elderlyFixture()))

	require.NoError(t, repo.TouchLastMedication(ctx, "e-1", t0.Add(time.Hour)))
	require.NoError(t, repo.TouchLastMedication(ctx, "e-1", t0))

	p, err := repo.GetByID(ctx, "e-1")
	require.NoError(t, err)
	assert.Equal(t, t0.Add(time.Hour), *p.LastMedicationTaken)

	// Update no pisa LastMedicationTaken
	p.LastMedicationTaken = nil
	p.Notes = "x"
	require.NoError(t, repo.Update(ctx, p))
	p, err = repo.GetByID(ctx, "e-1")
	require.NoError(t, err)
	require.NotNil(t, p.LastMedicationTaken)
	assert.Equal(t, "x", p.Notes)
}
