package forecast

import (
	"errors"
	"testing"
	"time"
)

func mustClock(t *testing.T, s string) ClockTime {
	t.Helper()
	c, err := ParseClockTime(s)
	if err != nil {
		t.Fatalf("ParseClockTime(%q) failed: %v", s, err)
	}
	return c
}

func hourlySamples(start time.Time, temps ...float64) []TemperatureSample {
	samples := make([]TemperatureSample, len(temps))
	for i, temp := range temps {
		samples[i] = TemperatureSample{
			Timestamp:    start.Add(time.Duration(i) * time.Hour),
			TemperatureC: temp,
		}
	}
	return samples
}

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		input   string
		want    ClockTime
		wantErr bool
	}{
		{"23:00", ClockTime{23, 0}, false},
		{"06:00", ClockTime{6, 0}, false},
		{"6:30", ClockTime{6, 30}, false},
		{"00:00", ClockTime{0, 0}, false},
		{"24:00", ClockTime{}, true},
		{"12:60", ClockTime{}, true},
		{"noon", ClockTime{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseClockTime(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseClockTime(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseClockTime(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseClockTime(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestWindowKindExclusivity(t *testing.T) {
	cfg := WindowConfig{
		ForecastHours: 3,
		NightStart:    ClockTime{23, 0},
		NightEnd:      ClockTime{6, 0},
	}

	// Every hour of the day selects exactly one window kind
	base := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	for hour := 0; hour < 24; hour++ {
		now := base.Add(time.Duration(hour) * time.Hour)
		window := chooseWindow(now, cfg)

		wantNight := hour >= 23 || hour < 6
		if wantNight && window.Kind != WindowNight {
			t.Errorf("hour %d: got %s, want night", hour, window.Kind)
		}
		if !wantNight && window.Kind != WindowDay {
			t.Errorf("hour %d: got %s, want day", hour, window.Kind)
		}
	}
}

func TestSelectWindowDay(t *testing.T) {
	// 10:00 with a 3 hour look-ahead: day window 10:00-13:00
	now := time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC)
	cfg := WindowConfig{ForecastHours: 3, NightStart: ClockTime{23, 0}, NightEnd: ClockTime{6, 0}}
	samples := hourlySamples(now, 5.0, 3.0, 6.0)

	window, windowed, err := SelectWindow(now, samples, cfg)
	if err != nil {
		t.Fatalf("SelectWindow failed: %v", err)
	}

	if window.Kind != WindowDay {
		t.Errorf("window kind = %s, want day", window.Kind)
	}
	if !window.Start.Equal(now) || !window.End.Equal(now.Add(3*time.Hour)) {
		t.Errorf("window = %v..%v, want %v..%v", window.Start, window.End, now, now.Add(3*time.Hour))
	}
	if len(windowed) != 3 {
		t.Fatalf("windowed samples = %d, want 3", len(windowed))
	}
	if min := MinTemperature(windowed); min != 3.0 {
		t.Errorf("min temperature = %.1f, want 3.0", min)
	}
}

func TestSelectWindowIncludesBoundarySample(t *testing.T) {
	// A sample exactly at the window end counts (inclusive slicing)
	now := time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC)
	cfg := WindowConfig{ForecastHours: 3, NightStart: ClockTime{23, 0}, NightEnd: ClockTime{6, 0}}
	samples := hourlySamples(now, 8.0, 7.0, 6.0, 2.0) // last sample at 13:00, the window end

	_, windowed, err := SelectWindow(now, samples, cfg)
	if err != nil {
		t.Fatalf("SelectWindow failed: %v", err)
	}

	if len(windowed) != 4 {
		t.Fatalf("windowed samples = %d, want 4 (boundary sample included)", len(windowed))
	}
	if min := MinTemperature(windowed); min != 2.0 {
		t.Errorf("min temperature = %.1f, want boundary sample 2.0", min)
	}
}

func TestSelectWindowNight(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Zurich")
	if err != nil {
		t.Fatalf("failed to load timezone: %v", err)
	}

	cfg := WindowConfig{ForecastHours: 3, NightStart: ClockTime{23, 0}, NightEnd: ClockTime{6, 0}}

	tests := []struct {
		name    string
		now     time.Time
		wantEnd time.Time
	}{
		{
			name:    "before midnight ends at next day 06:00",
			now:     time.Date(2024, 5, 10, 23, 30, 0, 0, loc),
			wantEnd: time.Date(2024, 5, 11, 6, 0, 0, 0, loc),
		},
		{
			name:    "after midnight ends at same day 06:00",
			now:     time.Date(2024, 5, 11, 0, 30, 0, 0, loc),
			wantEnd: time.Date(2024, 5, 11, 6, 0, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Forecast covers the whole night at the hourly cadence
			first := tt.now.Truncate(time.Hour).Add(time.Hour)
			var samples []TemperatureSample
			for ts := first; !ts.After(tt.wantEnd); ts = ts.Add(time.Hour) {
				samples = append(samples, TemperatureSample{Timestamp: ts, TemperatureC: 4.0})
			}

			window, windowed, err := SelectWindow(tt.now, samples, cfg)
			if err != nil {
				t.Fatalf("SelectWindow failed: %v", err)
			}
			if window.Kind != WindowNight {
				t.Errorf("window kind = %s, want night", window.Kind)
			}
			if !window.End.Equal(tt.wantEnd) {
				t.Errorf("window end = %v, want %v", window.End, tt.wantEnd)
			}
			if len(windowed) == 0 {
				t.Error("expected windowed samples, got none")
			}
		})
	}
}

func TestSelectWindowInsufficientData(t *testing.T) {
	now := time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC)
	cfg := WindowConfig{ForecastHours: 3, NightStart: ClockTime{23, 0}, NightEnd: ClockTime{6, 0}}

	tests := []struct {
		name    string
		samples []TemperatureSample
	}{
		{
			name:    "no samples at all",
			samples: nil,
		},
		{
			name:    "all samples outside the window",
			samples: hourlySamples(now.Add(6*time.Hour), 5.0, 5.0, 5.0),
		},
		{
			name: "forecast ends one hour ahead with three required",
			// Samples only at 10:00 and 11:00 while the window runs to 13:00
			samples: hourlySamples(now, 5.0, 5.0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, windowed, err := SelectWindow(now, tt.samples, cfg)
			if !errors.Is(err, ErrInsufficientForecastData) {
				t.Fatalf("expected ErrInsufficientForecastData, got %v", err)
			}
			if windowed != nil {
				t.Errorf("expected no windowed samples on error, got %d", len(windowed))
			}
		})
	}
}

func TestSelectWindowNightShortCoverage(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Zurich")
	if err != nil {
		t.Fatalf("failed to load timezone: %v", err)
	}

	// Night window 23:30-06:00 but forecast stops at 02:00
	now := time.Date(2024, 5, 10, 23, 30, 0, 0, loc)
	cfg := WindowConfig{ForecastHours: 3, NightStart: ClockTime{23, 0}, NightEnd: ClockTime{6, 0}}
	samples := hourlySamples(time.Date(2024, 5, 11, 0, 0, 0, 0, loc), 3.0, 2.0, 1.0)

	_, _, err = SelectWindow(now, samples, cfg)
	if !errors.Is(err, ErrInsufficientForecastData) {
		t.Fatalf("expected ErrInsufficientForecastData for short night coverage, got %v", err)
	}
}

func TestIsNight(t *testing.T) {
	start := ClockTime{23, 0}
	end := ClockTime{6, 0}

	tests := []struct {
		hour   int
		minute int
		want   bool
	}{
		{22, 59, false},
		{23, 0, true},
		{23, 30, true},
		{0, 0, true},
		{5, 59, true},
		{6, 0, false},
		{12, 0, false},
	}

	for _, tt := range tests {
		now := time.Date(2024, 5, 10, tt.hour, tt.minute, 0, 0, time.UTC)
		if got := isNight(now, start, end); got != tt.want {
			t.Errorf("isNight(%02d:%02d) = %v, want %v", tt.hour, tt.minute, got, tt.want)
		}
	}

	// Degenerate bounds: night never applies
	if isNight(time.Date(2024, 5, 10, 23, 0, 0, 0, time.UTC), ClockTime{23, 0}, ClockTime{23, 0}) {
		t.Error("equal night bounds should never select night")
	}
}
