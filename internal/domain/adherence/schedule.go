package adherence

import (
	"fmt"
	"time"
)

// cadence describe el paso entre dosis.
// Las cadencias diarias o más largas avanzan en días de calendario (AddDate) para
// no desplazarse con los cambios de horario; las sub-diarias usan duración fija.
type cadence struct {
	days  int
	fixed time.Duration
}

func (c cadence) after(t time.Time) time.Time {
	if c.days > 0 {
		return t.AddDate(0, 0, c.days)
	}
	return t.Add(c.fixed)
}

func cadenceOf(f Frequency) (cadence, bool, error) {
	switch f {
	case FrequencyOnce:
		return cadence{days: 1}, true, nil
	case FrequencyTwice:
		return cadence{fixed: 12 * time.Hour}, true, nil
	case FrequencyThreeTimes:
		return cadence{fixed: 8 * time.Hour}, true, nil
	case FrequencyFourTimes:
		return cadence{fixed: 6 * time.Hour}, true, nil
	case FrequencyWeekly:
		return cadence{days: 7}, true, nil
	case FrequencyMonthly:
		return cadence{days: 30}, true, nil
	case FrequencyAsNeeded:
		return cadence{}, false, nil
	default:
		return cadence{}, false, fmt.Errorf("%w: %q", ErrInvalidFrequency, string(f))
	}
}

// Interval devuelve el intervalo nominal de la frecuencia (false para as_needed).
func Interval(f Frequency) (time.Duration, bool, error) {
	c, ok, err := cadenceOf(f)
	if err != nil || !ok {
		return 0, ok, err
	}
	if c.days > 0 {
		return time.Duration(c.days) * 24 * time.Hour, true, nil
	}
	return c.fixed, true, nil
}

// NextDose calcula cuándo vence la próxima dosis.
//
// ok == false sin error significa "no hay próxima dosis": as_needed, o el
// tratamiento ya terminó (EndDate superado). Sin dosis previa, la primera toma es
// StartDate; si StartDate está vacío se ancla en referenceNow.
func NextDose(s DoseSchedule, lastDoseTime *time.Time, referenceNow time.Time) (time.Time, bool, error) {
	c, ok, err := cadenceOf(s.Frequency)
	if err != nil {
		return time.Time{}, false, err
	}
	if !ok {
		return time.Time{}, false, nil
	}

	var next time.Time
	switch {
	case lastDoseTime != nil:
		next = c.after(*lastDoseTime)
	case !s.StartDate.IsZero():
		next = s.StartDate
	default:
		next = referenceNow
	}

	if s.EndDate != nil && next.After(*s.EndDate) {
		return time.Time{}, false, nil
	}
	return next, true, nil
}

// FirstDoseSince devuelve el primer horario del esquema (StartDate + k pasos)
// que cae en o después de floor. Conserva la fase del esquema: reanudar una
// medicación pausada o crearla con StartDate viejo no genera dosis atrasadas.
func FirstDoseSince(s DoseSchedule, floor time.Time) (time.Time, bool, error) {
	c, ok, err := cadenceOf(s.Frequency)
	if err != nil {
		return time.Time{}, false, err
	}
	if !ok {
		return time.Time{}, false, nil
	}

	next := s.StartDate
	if next.IsZero() {
		next = floor
	}
	if next.Before(floor) {
		gap := floor.Sub(next)
		if c.days > 0 {
			k := int(gap / (time.Duration(c.days) * 24 * time.Hour))
			next = next.AddDate(0, 0, k*c.days)
			for next.Before(floor) {
				next = c.after(next)
			}
		} else {
			k := (gap + c.fixed - 1) / c.fixed
			next = next.Add(k * c.fixed)
		}
	}

	if s.EndDate != nil && next.After(*s.EndDate) {
		return time.Time{}, false, nil
	}
	return next, true, nil
}
