package forecast

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/the3rdPoliceman/plant-hardener/pkg/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, serverURL string) Source {
	t.Helper()
	cfg := config.NewConfig()
	cfg.ForecastURL = serverURL
	cfg.Timezone = "Europe/Zurich"

	source, err := NewOpenMeteoClient(cfg, testLogger())
	if err != nil {
		t.Fatalf("NewOpenMeteoClient failed: %v", err)
	}
	return source
}

func TestHourlyTemperatures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("hourly") != "temperature_2m" {
			t.Errorf("hourly query = %q, want temperature_2m", q.Get("hourly"))
		}
		if q.Get("timezone") != "Europe/Zurich" {
			t.Errorf("timezone query = %q, want Europe/Zurich", q.Get("timezone"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"hourly": {
				"time": ["2024-05-10T10:00", "2024-05-10T11:00", "2024-05-10T12:00"],
				"temperature_2m": [5.0, 3.0, 6.0]
			}
		}`))
	}))
	defer server.Close()

	source := newTestClient(t, server.URL)

	samples, err := source.HourlyTemperatures(context.Background())
	if err != nil {
		t.Fatalf("HourlyTemperatures failed: %v", err)
	}

	if len(samples) != 3 {
		t.Fatalf("samples = %d, want 3", len(samples))
	}

	loc, _ := time.LoadLocation("Europe/Zurich")
	want := time.Date(2024, 5, 10, 10, 0, 0, 0, loc)
	if !samples[0].Timestamp.Equal(want) {
		t.Errorf("first timestamp = %v, want %v", samples[0].Timestamp, want)
	}
	if samples[1].TemperatureC != 3.0 {
		t.Errorf("second temperature = %.1f, want 3.0", samples[1].TemperatureC)
	}

	for i := 1; i < len(samples); i++ {
		if !samples[i].Timestamp.After(samples[i-1].Timestamp) {
			t.Errorf("samples not ordered ascending at index %d", i)
		}
	}
}

func TestHourlyTemperaturesInconsistentResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"hourly": {
				"time": ["2024-05-10T10:00", "2024-05-10T11:00"],
				"temperature_2m": [5.0]
			}
		}`))
	}))
	defer server.Close()

	source := newTestClient(t, server.URL)

	if _, err := source.HourlyTemperatures(context.Background()); err == nil {
		t.Fatal("expected error for mismatched time/temperature lengths")
	}
}

func TestHourlyTemperaturesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	source := newTestClient(t, server.URL)

	if _, err := source.HourlyTemperatures(context.Background()); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
