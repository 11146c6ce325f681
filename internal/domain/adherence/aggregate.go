package adherence

import (
	"math"
	"time"
)

// Aggregate resume las ocurrencias con ScheduledTime en [windowStart, windowEnd].
// Las scheduled (incompletas) no cuentan. Delayed suma al total pero no a taken:
// una dosis tardía fue administrada pero no a tiempo.
func Aggregate(events []DoseOccurrence, windowStart, windowEnd time.Time) Summary {
	var s Summary
	if windowEnd.Before(windowStart) {
		return s
	}

	for _, e := range events {
		if e.ScheduledTime.Before(windowStart) || e.ScheduledTime.After(windowEnd) {
			continue
		}
		switch e.Status {
		case StatusTaken:
			s.Taken++
		case StatusDelayed:
			s.Delayed++
		case StatusMissed:
			s.Missed++
		case StatusSkipped:
			s.Skipped++
		default:
			continue
		}
		s.Total++
	}

	s.OverallRatePercent = RatePercent(s.Taken, s.Total)
	return s
}

// RatePercent = round(taken/total*100), nil si total == 0.
// También se usa para el cache de contadores de la medicación.
func RatePercent(taken, total int) *int {
	if total <= 0 {
		return nil
	}
	v := int(math.Round(float64(taken) / float64(total) * 100))
	return &v
}
