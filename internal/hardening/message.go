package hardening

import (
	"fmt"

	"github.com/the3rdPoliceman/plant-hardener/internal/forecast"
)

// NotificationTitle is the push notification title for placement changes
const NotificationTitle = "Plant Hardening Reminder"

// BuildMessage renders the human-readable notification for a changed
// placement, phrased per window kind and naming the triggering minimum
// temperature.
func BuildMessage(window forecast.EvaluationWindow, dec Decision, thresholdC float64) string {
	if window.Kind == forecast.WindowNight {
		if dec.Verdict == PlacementInside {
			return fmt.Sprintf(
				"Tonight's temperatures will dip below %.1f°C (minimum %.1f°C); bring the plants inside.",
				thresholdC, dec.MinTempC)
		}
		return fmt.Sprintf(
			"Tonight's temperatures will stay above %.1f°C (minimum %.1f°C); you can leave the plants outside.",
			thresholdC, dec.MinTempC)
	}

	if dec.Verdict == PlacementInside {
		return fmt.Sprintf(
			"The next %d hours are forecast below %.1f°C (minimum %.1f°C); bring the plants inside.",
			dec.SampleCount, thresholdC, dec.MinTempC)
	}
	return fmt.Sprintf(
		"The next %d hours are forecast above %.1f°C (minimum %.1f°C); move the plants outside.",
		dec.SampleCount, thresholdC, dec.MinTempC)
}
