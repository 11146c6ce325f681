package adherence

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidFrequency = errors.New("invalid frequency")
)

// Frequency define la cadencia de una medicación.
type Frequency string

const (
	FrequencyOnce       Frequency = "once"
	FrequencyTwice      Frequency = "twice"
	FrequencyThreeTimes Frequency = "three_times"
	FrequencyFourTimes  Frequency = "four_times"
	FrequencyAsNeeded   Frequency = "as_needed"
	FrequencyWeekly     Frequency = "weekly"
	FrequencyMonthly    Frequency = "monthly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyOnce, FrequencyTwice, FrequencyThreeTimes, FrequencyFourTimes,
		FrequencyAsNeeded, FrequencyWeekly, FrequencyMonthly:
		return true
	default:
		return false
	}
}

// ParseFrequency valida el valor en el borde (handlers / input).
// Nunca se asume un default: un valor desconocido es error.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}
	return f, nil
}

type DoseStatus string

const (
	StatusScheduled DoseStatus = "scheduled"
	StatusTaken     DoseStatus = "taken"
	StatusDelayed   DoseStatus = "delayed"
	StatusMissed    DoseStatus = "missed"
	StatusSkipped   DoseStatus = "skipped"
)

// Terminal: todo excepto scheduled.
func (s DoseStatus) Terminal() bool {
	switch s {
	case StatusTaken, StatusDelayed, StatusMissed, StatusSkipped:
		return true
	default:
		return false
	}
}

func (s DoseStatus) Valid() bool {
	return s == StatusScheduled || s.Terminal()
}

type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

// Rank permite ordenar severidades (0 = desconocida).
func (s AlertSeverity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

func ParseSeverity(s string) (AlertSeverity, bool) {
	v := AlertSeverity(strings.ToLower(strings.TrimSpace(s)))
	if v.Rank() == 0 {
		return "", false
	}
	return v, true
}

// DoseSchedule es la parte de la medicación que define cuándo toca cada dosis.
type DoseSchedule struct {
	Frequency Frequency
	StartDate time.Time
	EndDate   *time.Time
}

// DoseOccurrence es una instancia de una dosis que vence en ScheduledTime.
// Se registra una sola vez con estado terminal; las correcciones son nuevas ocurrencias.
type DoseOccurrence struct {
	ScheduledTime time.Time
	TakenTime     *time.Time
	Status        DoseStatus
	DelayMinutes  int
	Notes         string
}

// Summary es derivado, nunca se guarda.
// OverallRatePercent es nil cuando Total == 0 ("sin datos" != 0%).
type Summary struct {
	Total              int  `json:"total"`
	Taken              int  `json:"taken"`
	Missed             int  `json:"missed"`
	Delayed            int  `json:"delayed"`
	Skipped            int  `json:"skipped"`
	OverallRatePercent *int `json:"overall_rate_percent"`
}

type TrendPoint struct {
	Date        CalendarDay `json:"date"`
	RatePercent *int        `json:"rate_percent"`
	SampleCount int         `json:"sample_count"`
}
