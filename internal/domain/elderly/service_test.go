package elderly

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu   sync.Mutex
	byID map[string]Patient
}

func newFakeRepo() *fakeRepo { return &fakeRepo{byID: map[string]Patient{}} }

func (f *fakeRepo) Create(_ context.Context, p Patient) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[p.ID] = p
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return Patient{}, ErrNotFound
	}
	return p, nil
}

func (f *fakeRepo) ListByCaregiver(_ context.Context, caregiverID string) ([]Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []Patient{}
	for _, p := range f.byID {
		if p.CaregiverID == caregiverID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepo) Update(_ context.Context, p Patient) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[p.ID]; !ok {
		return ErrNotFound
	}
	f.byID[p.ID] = p
	return nil
}

func (f *fakeRepo) TouchLastMedication(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return ErrNotFound
	}
	p.LastMedicationTaken = &at
	f.byID[id] = p
	return nil
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService() *Service {
	svc := NewService(newFakeRepo())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestCreate_Validates(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "", CreateInput{FirstName: "Rosa"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, "cg-1", CreateInput{FirstName: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	future := fixedNow.AddDate(1, 0, 0)
	_, err = svc.Create(ctx, "cg-1", CreateInput{FirstName: "Rosa", DateOfBirth: &future})
	assert.ErrorIs(t, err, ErrInvalidInput)

	p, err := svc.Create(ctx, "cg-1", CreateInput{FirstName: " Rosa ", LastName: "Díaz"})
	require.NoError(t, err)
	assert.Equal(t, "Rosa Díaz", p.FullName())
	assert.True(t, p.IsActive)
	assert.Equal(t, fixedNow, p.CreatedAt)
}

func TestAuthorize(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	p, err := svc.Create(ctx, "cg-1", CreateInput{FirstName: "Rosa"})
	require.NoError(t, err)

	_, err = svc.Authorize(ctx, p.ID, "cg-2")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Authorize(ctx, "missing", "cg-1")
	assert.ErrorIs(t, err, ErrNotFound)

	owner, err := svc.CaregiverOf(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "cg-1", owner)
}

func TestUpdateProfile_Patch(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	dob := time.Date(1940, 5, 2, 0, 0, 0, 0, time.UTC)
	p, err := svc.Create(ctx, "cg-1", CreateInput{FirstName: "Rosa", Phone: "555", DateOfBirth: &dob})
	require.NoError(t, err)

	notes := "alergia a penicilina"
	inactive := false
	updated, err := svc.UpdateProfile(ctx, p.ID, "cg-1", UpdateInput{
		Notes:       &notes,
		IsActive:    &inactive,
		DateOfBirth: OptionalDate{Present: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "555", updated.Phone)
	assert.Equal(t, notes, updated.Notes)
	assert.False(t, updated.IsActive)
	assert.Nil(t, updated.DateOfBirth)

	empty := ""
	_, err = svc.UpdateProfile(ctx, p.ID, "cg-1", UpdateInput{FirstName: &empty})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.UpdateProfile(ctx, p.ID, "cg-2", UpdateInput{Notes: &notes})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestTouchLastMedication_OnlyMovesForward(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	p, err := svc.Create(ctx, "cg-1", CreateInput{FirstName: "Rosa"})
	require.NoError(t, err)

	later := fixedNow.Add(2 * time.Hour)
	require.NoError(t, svc.TouchLastMedication(ctx, p.ID, later))
	require.NoError(t, svc.TouchLastMedication(ctx, p.ID, fixedNow))

	got, err := svc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastMedicationTaken)
	assert.Equal(t, later, *got.LastMedicationTaken)
}
