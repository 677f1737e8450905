package hardening

import (
	"github.com/the3rdPoliceman/plant-hardener/internal/forecast"
)

// Decision is the outcome of reducing one evaluation window to a placement
// verdict and diffing it against the prior persisted state
type Decision struct {
	Verdict     Placement
	Changed     bool
	MinTempC    float64
	SampleCount int
}

// Decide computes the placement verdict for the windowed samples and whether
// it differs from the prior state.
//
// The verdict is INSIDE exactly when the minimum windowed temperature is
// strictly below thresholdC; a minimum equal to the threshold stays OUTSIDE.
// The comparison must stay strict so the boundary cannot oscillate.
//
// A nil prior means no state has ever been committed (first run or missing
// record); the first observed verdict is then always a change, so it gets
// persisted and announced once, establishing a deterministic starting state.
//
// samples must be non-empty: the window selector guarantees that by
// signalling insufficient data instead of handing over an empty window.
func Decide(samples []forecast.TemperatureSample, thresholdC float64, prior *PersistedState) Decision {
	minTemp := forecast.MinTemperature(samples)

	verdict := PlacementOutside
	if minTemp < thresholdC {
		verdict = PlacementInside
	}

	changed := prior == nil || verdict != prior.Placement

	return Decision{
		Verdict:     verdict,
		Changed:     changed,
		MinTempC:    minTemp,
		SampleCount: len(samples),
	}
}
