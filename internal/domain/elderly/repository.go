package elderly

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, p Patient) error
	GetByID(ctx context.Context, id string) (Patient, error)
	ListByCaregiver(ctx context.Context, caregiverID string) ([]Patient, error)
	Update(ctx context.Context, p Patient) error
	TouchLastMedication(ctx context.Context, id string, at time.Time) error
}
