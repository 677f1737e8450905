package hardening

import (
	"testing"
	"time"

	"github.com/the3rdPoliceman/plant-hardener/internal/forecast"
)

func samplesAt(start time.Time, temps ...float64) []forecast.TemperatureSample {
	samples := make([]forecast.TemperatureSample, len(temps))
	for i, temp := range temps {
		samples[i] = forecast.TemperatureSample{
			Timestamp:    start.Add(time.Duration(i) * time.Hour),
			TemperatureC: temp,
		}
	}
	return samples
}

func TestDecideVerdict(t *testing.T) {
	start := time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		temps      []float64
		thresholdC float64
		want       Placement
	}{
		{
			name:       "minimum below threshold means inside",
			temps:      []float64{5.0, 3.0, 6.0},
			thresholdC: 4.0,
			want:       PlacementInside,
		},
		{
			name:       "minimum above threshold means outside",
			temps:      []float64{5.0, 3.0, 6.0},
			thresholdC: 2.0,
			want:       PlacementOutside,
		},
		{
			name:       "minimum exactly at threshold stays outside",
			temps:      []float64{5.0, 4.0, 6.0},
			thresholdC: 4.0,
			want:       PlacementOutside,
		},
		{
			name:       "just below threshold goes inside",
			temps:      []float64{5.0, 3.999, 6.0},
			thresholdC: 4.0,
			want:       PlacementInside,
		},
		{
			name:       "single freezing sample",
			temps:      []float64{-1.0},
			thresholdC: 4.0,
			want:       PlacementInside,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := Decide(samplesAt(start, tt.temps...), tt.thresholdC, nil)
			if dec.Verdict != tt.want {
				t.Errorf("verdict = %s, want %s", dec.Verdict, tt.want)
			}
			if dec.SampleCount != len(tt.temps) {
				t.Errorf("sample count = %d, want %d", dec.SampleCount, len(tt.temps))
			}
		})
	}
}

func TestDecideBootstrap(t *testing.T) {
	start := time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC)

	// With no prior state the first verdict is always a change, whatever it is
	for _, thresholdC := range []float64{2.0, 4.0} {
		dec := Decide(samplesAt(start, 5.0, 3.0, 6.0), thresholdC, nil)
		if !dec.Changed {
			t.Errorf("threshold %.1f: bootstrap decision should report changed", thresholdC)
		}
	}
}

func TestDecideChangeDetection(t *testing.T) {
	start := time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC)
	samples := samplesAt(start, 5.0, 3.0, 6.0) // min 3.0

	prior := &PersistedState{Placement: PlacementOutside, LastUpdated: start.Add(-time.Hour)}

	dec := Decide(samples, 4.0, prior)
	if dec.Verdict != PlacementInside {
		t.Fatalf("verdict = %s, want inside", dec.Verdict)
	}
	if !dec.Changed {
		t.Error("verdict differs from prior state, expected changed")
	}

	// Re-deciding against the already-updated state is a no-op
	updated := &PersistedState{Placement: dec.Verdict, LastUpdated: start}
	second := Decide(samples, 4.0, updated)
	if second.Changed {
		t.Error("same verdict as prior state, expected unchanged")
	}
	if second.Verdict != dec.Verdict {
		t.Errorf("idempotent re-decide flipped verdict: %s vs %s", second.Verdict, dec.Verdict)
	}
}

func TestDecideMinTemp(t *testing.T) {
	start := time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC)

	dec := Decide(samplesAt(start, 5.0, 3.0, 6.0), 4.0, nil)
	if dec.MinTempC != 3.0 {
		t.Errorf("min temp = %.1f, want 3.0", dec.MinTempC)
	}
}
