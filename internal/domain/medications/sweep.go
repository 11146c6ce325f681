package medications

import (
	"context"
	"errors"
	"time"

	"medicare-adherence/internal/domain/doses"
)

const (
	sweepBatch = 200
	// Máximo de dosis vencidas que se cierran por medicación en una pasada;
	// el resto queda para la siguiente.
	maxCatchUp = 64
)

// SweepMissed cierra como missed toda dosis pendiente cuyo horario quedó más
// atrás que el cutoff. Cada dosis pasa por la misma transacción que MarkTaken,
// así que una toma concurrente gana o pierde limpio (ErrConflict + reintento).
func (s *Service) SweepMissed(ctx context.Context, now time.Time) (int, error) {
	cutoff := s.policy.MissedCutoff()

	due, err := s.repo.ListDue(ctx, now.Add(-cutoff), sweepBatch)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, m := range due {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := s.sweepOne(ctx, m, now)
		total += n
		if err != nil {
			s.log.Error("sweep medication failed", map[string]any{
				"medication_id": m.ID,
				"err":           err,
			})
		}
	}

	if total > 0 {
		s.metrics.SweptMissed(total)
	}
	return total, nil
}

func (s *Service) sweepOne(ctx context.Context, m Medication, now time.Time) (int, error) {
	recorded := 0
	conflicts := 0

	for recorded < maxCatchUp {
		if m.Status != StatusActive || m.NextDose == nil {
			return recorded, nil
		}
		scheduled := *m.NextDose
		c := s.policy.Classify(scheduled, nil, now)
		if !c.Status.Terminal() {
			// Todavía dentro del cutoff.
			return recorded, nil
		}

		rec := s.newRecord(m, scheduled, nil, c, "", doses.SourceSweeper, now)
		res, err := s.commit(ctx, m, rec, scheduled)
		if errors.Is(err, ErrConflict) {
			s.metrics.UpdateConflict()
			conflicts++
			if conflicts >= s.retries {
				return recorded, ErrConcurrentUpdate
			}
			// Otro writer avanzó la medicación: releer y volver a evaluar.
			m, err = s.repo.GetByID(ctx, m.ID)
			if err != nil {
				return recorded, err
			}
			continue
		}
		if err != nil {
			return recorded, err
		}

		recorded++
		m = res.Medication
	}
	return recorded, nil
}
