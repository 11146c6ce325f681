package medications

import (
	"context"
	"errors"
	"time"

	"medicare-adherence/internal/domain/doses"
)

// ErrConflict lo devuelve el repositorio cuando la versión guardada no coincide.
var ErrConflict = errors.New("medication version conflict")

type Repository interface {
	Create(ctx context.Context, m Medication) error
	GetByID(ctx context.Context, id string) (Medication, error)
	ListByElderly(ctx context.Context, elderlyID string) ([]Medication, error)

	// ListUpcoming: activas del cuidador con NextDose en [from, to], orden asc.
	ListUpcoming(ctx context.Context, caregiverID string, from, to time.Time) ([]Medication, error)
	// ListDue: activas con NextDose <= before, orden asc, hasta limit.
	ListDue(ctx context.Context, before time.Time, limit int) ([]Medication, error)

	// Update reemplaza la medicación si la versión guardada es expectedVersion.
	Update(ctx context.Context, expectedVersion int64, m Medication) error

	// RecordDose es la única escritura de dosis: en una transacción agrega rec al
	// log y reemplaza la medicación por updated, solo si la versión guardada es
	// expectedVersion. Si no, ErrConflict y no se escribe nada.
	RecordDose(ctx context.Context, expectedVersion int64, updated Medication, rec doses.Record) error
}
