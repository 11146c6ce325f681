package adherence

import (
	"math"
	"time"
)

const (
	DefaultGraceMinutes      = 30
	DefaultMissedCutoffHours = 24
)

// Policy agrupa los umbrales de clasificación.
type Policy struct {
	GraceMinutes      int
	MissedCutoffHours int
}

func DefaultPolicy() Policy {
	return Policy{
		GraceMinutes:      DefaultGraceMinutes,
		MissedCutoffHours: DefaultMissedCutoffHours,
	}
}

// normalized: grace negativo o cutoff <= 0 vuelven al default (grace 0 es válido: modo estricto).
func (p Policy) normalized() Policy {
	if p.GraceMinutes < 0 {
		p.GraceMinutes = DefaultGraceMinutes
	}
	if p.MissedCutoffHours <= 0 {
		p.MissedCutoffHours = DefaultMissedCutoffHours
	}
	return p
}

func (p Policy) MissedCutoff() time.Duration {
	return time.Duration(p.normalized().MissedCutoffHours) * time.Hour
}

type Classification struct {
	Status       DoseStatus
	DelayMinutes int
}

// Classify no tiene efectos: quien llama aplica el resultado.
// Un resultado scheduled significa "todavía no clasificable" y no debe persistirse.
func (p Policy) Classify(scheduledTime time.Time, takenTime *time.Time, evaluationNow time.Time) Classification {
	p = p.normalized()

	if takenTime != nil {
		delay := absMinutes(takenTime.Sub(scheduledTime))
		if delay <= p.GraceMinutes {
			return Classification{Status: StatusTaken, DelayMinutes: delay}
		}
		// Tomada fuera de la ventana, antes o después: delayed.
		return Classification{Status: StatusDelayed, DelayMinutes: delay}
	}

	elapsed := evaluationNow.Sub(scheduledTime)
	if elapsed >= p.MissedCutoff() {
		return Classification{Status: StatusMissed, DelayMinutes: int(elapsed / time.Minute)}
	}

	return Classification{Status: StatusScheduled, DelayMinutes: 0}
}

// Skip es la omisión intencional declarada por el cuidador; no se deriva del reloj.
func (p Policy) Skip() Classification {
	return Classification{Status: StatusSkipped, DelayMinutes: 0}
}

// Classify usa la política por defecto (30 min / 24 h).
func Classify(scheduledTime time.Time, takenTime *time.Time, evaluationNow time.Time) Classification {
	return DefaultPolicy().Classify(scheduledTime, takenTime, evaluationNow)
}

func absMinutes(d time.Duration) int {
	m := int(math.Round(d.Minutes()))
	if m < 0 {
		return -m
	}
	return m
}
