package doses

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"medicare-adherence/internal/domain/adherence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	recs []Record
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (Record, error) {
	for _, r := range f.recs {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, ErrNotFound
}

func (f *fakeRepo) List(_ context.Context, filter Filter) ([]Record, error) {
	out := []Record{}
	for _, r := range f.recs {
		if filter.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

var base = time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

func rec(id, med string, at time.Time, st adherence.DoseStatus) Record {
	return Record{
		ID:             id,
		MedicationID:   med,
		ElderlyID:      "e-1",
		DoseOccurrence: adherence.DoseOccurrence{ScheduledTime: at, Status: st},
		Source:         SourceManual,
	}
}

func TestList_FiltersByStatusAndWindow(t *testing.T) {
	svc := NewService(&fakeRepo{recs: []Record{
		rec("a", "m-1", base, adherence.StatusTaken),
		rec("b", "m-1", base.Add(12*time.Hour), adherence.StatusMissed),
		rec("c", "m-2", base.Add(24*time.Hour), adherence.StatusMissed),
	}})

	to := base.Add(12 * time.Hour)
	got, err := svc.List(context.Background(), Filter{
		ElderlyID: "e-1",
		To:        &to,
		Statuses:  []adherence.DoseStatus{adherence.StatusMissed},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}

func TestList_RejectsInvalidFilters(t *testing.T) {
	svc := NewService(&fakeRepo{})
	ctx := context.Background()

	_, err := svc.List(ctx, Filter{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	from, to := base, base.Add(-time.Hour)
	_, err = svc.List(ctx, Filter{MedicationID: "m", From: &from, To: &to})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.List(ctx, Filter{MedicationID: "m", Statuses: []adherence.DoseStatus{adherence.StatusScheduled}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestOccurrences(t *testing.T) {
	occ := Occurrences([]Record{rec("a", "m", base, adherence.StatusTaken)})
	require.Len(t, occ, 1)
	assert.Equal(t, adherence.StatusTaken, occ[0].Status)
}

func TestParseFilter(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?limit=10&statuses=missed,%20DELAYED&from=2024-01-01T00:00:00Z", nil)
	f, err := ParseFilter(r)
	require.NoError(t, err)
	assert.Equal(t, 10, f.Limit)
	assert.Equal(t, []adherence.DoseStatus{adherence.StatusMissed, adherence.StatusDelayed}, f.Statuses)
	require.NotNil(t, f.From)
	assert.Nil(t, f.To)

	f, err = ParseFilter(httptest.NewRequest("GET", "/x", nil))
	require.NoError(t, err)
	assert.Equal(t, DefaultListLimit, f.Limit)

	for _, q := range []string{"limit=0", "limit=500", "statuses=scheduled", "to=yesterday"} {
		_, err := ParseFilter(httptest.NewRequest("GET", "/x?"+q, nil))
		assert.Error(t, err, q)
	}
}
