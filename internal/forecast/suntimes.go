package forecast

import (
	"time"

	"github.com/sixdouglas/suncalc"
)

// NightBoundsFromSun derives night window bounds from the sun times at the
// given location: night starts at sunset and ends at the following sunrise.
// Used instead of the fixed clock bounds when night-from-sun is enabled.
func NightBoundsFromSun(t time.Time, latitude, longitude float64) (ClockTime, ClockTime) {
	times := suncalc.GetTimes(t, latitude, longitude)

	sunset := times[suncalc.Sunset].Value.In(t.Location())
	sunrise := times[suncalc.Sunrise].Value.In(t.Location())

	return ClockTime{Hour: sunset.Hour(), Minute: sunset.Minute()},
		ClockTime{Hour: sunrise.Hour(), Minute: sunrise.Minute()}
}
