package forecast

import (
	"errors"
	"fmt"
	"time"
)

// ErrInsufficientForecastData signals that the forecast does not cover the
// evaluation window. The caller must skip the run without computing,
// persisting, or notifying anything.
var ErrInsufficientForecastData = errors.New("insufficient forecast data for evaluation window")

// WindowKind identifies which evaluation window applies at an instant
type WindowKind string

const (
	WindowDay   WindowKind = "day"
	WindowNight WindowKind = "night"
)

// EvaluationWindow is the time span over which forecast samples are reduced
// to one placement decision
type EvaluationWindow struct {
	Kind  WindowKind `json:"kind"`
	Start time.Time  `json:"start"`
	End   time.Time  `json:"end"`
}

// ClockTime is a time of day without a date
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses an "HH:MM" string
func ParseClockTime(s string) (ClockTime, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return ClockTime{}, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return ClockTime{}, fmt.Errorf("invalid clock time %q: out of range", s)
	}
	return ClockTime{Hour: h, Minute: m}, nil
}

// String formats the clock time as "HH:MM"
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c ClockTime) minuteOfDay() int {
	return c.Hour*60 + c.Minute
}

// WindowConfig holds the fixed window parameters for one run
type WindowConfig struct {
	ForecastHours int
	NightStart    ClockTime
	NightEnd      ClockTime
}

// SelectWindow chooses the evaluation window for now and returns the forecast
// samples falling inside it. samples must be ordered ascending by timestamp.
//
// NIGHT applies when now's clock time lies within [NightStart, NightEnd),
// wrapping across midnight; the window then spans now to the next occurrence
// of NightEnd. Otherwise DAY applies: now to now+ForecastHours.
//
// Slicing is inclusive of both window ends, so a sample exactly at the window
// boundary counts. The forecast must also cover the window: at the hourly
// cadence a DAY window needs at least ForecastHours samples, and a NIGHT
// window needs its last sample within one hour of the window end. Anything
// less returns ErrInsufficientForecastData.
func SelectWindow(now time.Time, samples []TemperatureSample, cfg WindowConfig) (EvaluationWindow, []TemperatureSample, error) {
	window := chooseWindow(now, cfg)

	var windowed []TemperatureSample
	for _, s := range samples {
		if s.Timestamp.Before(window.Start) || s.Timestamp.After(window.End) {
			continue
		}
		windowed = append(windowed, s)
	}

	if len(windowed) == 0 {
		return window, nil, fmt.Errorf("no samples in %s window %s..%s: %w",
			window.Kind, window.Start.Format(time.RFC3339), window.End.Format(time.RFC3339),
			ErrInsufficientForecastData)
	}

	switch window.Kind {
	case WindowDay:
		if len(windowed) < cfg.ForecastHours {
			return window, nil, fmt.Errorf("day window has %d of %d required samples: %w",
				len(windowed), cfg.ForecastHours, ErrInsufficientForecastData)
		}
	case WindowNight:
		last := windowed[len(windowed)-1].Timestamp
		if last.Before(window.End.Add(-time.Hour)) {
			return window, nil, fmt.Errorf("night window forecast ends at %s, window ends at %s: %w",
				last.Format(time.RFC3339), window.End.Format(time.RFC3339),
				ErrInsufficientForecastData)
		}
	}

	return window, windowed, nil
}

// chooseWindow derives the window purely from now and the configuration.
// Exactly one kind applies for any instant.
func chooseWindow(now time.Time, cfg WindowConfig) EvaluationWindow {
	if isNight(now, cfg.NightStart, cfg.NightEnd) {
		return EvaluationWindow{
			Kind:  WindowNight,
			Start: now,
			End:   nextOccurrence(now, cfg.NightEnd),
		}
	}
	return EvaluationWindow{
		Kind:  WindowDay,
		Start: now,
		End:   now.Add(time.Duration(cfg.ForecastHours) * time.Hour),
	}
}

// isNight reports whether t's clock time falls in [start, end), wrapping
// across midnight when start > end. start == end means night never applies.
func isNight(t time.Time, start, end ClockTime) bool {
	m := t.Hour()*60 + t.Minute()
	startM := start.minuteOfDay()
	endM := end.minuteOfDay()

	if startM == endM {
		return false
	}
	if startM < endM {
		return m >= startM && m < endM
	}
	return m >= startM || m < endM
}

// nextOccurrence returns the first instant strictly after now whose clock
// time equals c, in now's location
func nextOccurrence(now time.Time, c ClockTime) time.Time {
	candidate := time.Date(now.Year(), now.Month(), now.Day(), c.Hour, c.Minute, 0, 0, now.Location())
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}
