package forecast

import (
	"context"
	"time"
)

// TemperatureSample is one forecast hour: the predicted 2m air temperature
// at a point in time. Samples are immutable and ordered ascending by timestamp.
type TemperatureSample struct {
	Timestamp    time.Time `json:"timestamp"`
	TemperatureC float64   `json:"temperature_c"`
}

// Source produces the hourly temperature forecast for the configured location
type Source interface {
	// HourlyTemperatures returns forecast samples ordered ascending by
	// timestamp, covering at least the configured look-ahead horizon when the
	// upstream provider has the data.
	HourlyTemperatures(ctx context.Context) ([]TemperatureSample, error)
}

// MinTemperature returns the minimum temperature across samples.
// The slice must be non-empty.
func MinTemperature(samples []TemperatureSample) float64 {
	min := samples[0].TemperatureC
	for _, s := range samples[1:] {
		if s.TemperatureC < min {
			min = s.TemperatureC
		}
	}
	return min
}
