package adherence

import (
	"fmt"
	"iter"
	"slices"
	"time"
)

const dayLayout = "2006-01-02"

// CalendarDay es un día de calendario sin hora ni zona.
type CalendarDay struct {
	Year  int
	Month time.Month
	Day   int
}

func DayOf(t time.Time) CalendarDay {
	y, m, d := t.Date()
	return CalendarDay{Year: y, Month: m, Day: d}
}

func ParseDay(s string) (CalendarDay, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return CalendarDay{}, fmt.Errorf("day must be YYYY-MM-DD: %w", err)
	}
	return DayOf(t), nil
}

// Start devuelve las 00:00 del día en loc (UTC si loc es nil).
func (d CalendarDay) Start(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays normaliza (31 ene + 1 = 1 feb).
func (d CalendarDay) AddDays(n int) CalendarDay {
	return DayOf(time.Date(d.Year, d.Month, d.Day+n, 12, 0, 0, 0, time.UTC))
}

func (d CalendarDay) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d CalendarDay) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *CalendarDay) UnmarshalText(b []byte) error {
	v, err := ParseDay(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Trend produce exactamente `days` puntos, del más antiguo a endDate inclusive.
// La secuencia es perezosa y se puede recorrer varias veces. Cada punto agrega
// solo su día [00:00, 24:00) en loc; los días sin datos salen con rate nil.
func Trend(events []DoseOccurrence, days int, endDate CalendarDay, loc *time.Location) iter.Seq[TrendPoint] {
	return func(yield func(TrendPoint) bool) {
		for i := days - 1; i >= 0; i-- {
			day := endDate.AddDays(-i)
			start := day.Start(loc)
			end := day.AddDays(1).Start(loc).Add(-time.Nanosecond)

			s := Aggregate(events, start, end)
			if !yield(TrendPoint{
				Date:        day,
				RatePercent: s.OverallRatePercent,
				SampleCount: s.Total,
			}) {
				return
			}
		}
	}
}

// TrendPoints materializa Trend (para respuestas JSON).
func TrendPoints(events []DoseOccurrence, days int, endDate CalendarDay, loc *time.Location) []TrendPoint {
	out := slices.Collect(Trend(events, days, endDate, loc))
	if out == nil {
		out = []TrendPoint{}
	}
	return out
}
