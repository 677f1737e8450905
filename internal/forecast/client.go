package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/the3rdPoliceman/plant-hardener/pkg/config"
)

// Open-Meteo returns hourly timestamps without a zone offset, in the
// requested timezone.
const openMeteoTimeLayout = "2006-01-02T15:04"

// openMeteoClient implements Source against the Open-Meteo forecast API
type openMeteoClient struct {
	baseURL    string
	latitude   float64
	longitude  float64
	timezone   string
	location   *time.Location
	httpClient *http.Client
	logger     *slog.Logger
}

// NewOpenMeteoClient creates a forecast source backed by Open-Meteo
func NewOpenMeteoClient(cfg *config.Config, logger *slog.Logger) (Source, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	return &openMeteoClient{
		baseURL:   cfg.ForecastURL,
		latitude:  cfg.Latitude,
		longitude: cfg.Longitude,
		timezone:  cfg.Timezone,
		location:  loc,
		httpClient: &http.Client{
			Timeout: cfg.ForecastTimeout(),
		},
		logger: logger,
	}, nil
}

// hourlyResponse mirrors the subset of the Open-Meteo payload we consume
type hourlyResponse struct {
	Hourly struct {
		Time          []string  `json:"time"`
		Temperature2M []float64 `json:"temperature_2m"`
	} `json:"hourly"`
}

// HourlyTemperatures fetches and parses the hourly temperature forecast
func (c *openMeteoClient) HourlyTemperatures(ctx context.Context) ([]TemperatureSample, error) {
	reqURL, err := c.requestURL()
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create forecast request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("forecast request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("forecast endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload hourlyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode forecast response: %w", err)
	}

	if len(payload.Hourly.Time) != len(payload.Hourly.Temperature2M) {
		return nil, fmt.Errorf("forecast response is inconsistent: %d timestamps, %d temperatures",
			len(payload.Hourly.Time), len(payload.Hourly.Temperature2M))
	}

	samples := make([]TemperatureSample, 0, len(payload.Hourly.Time))
	for i, ts := range payload.Hourly.Time {
		t, err := time.ParseInLocation(openMeteoTimeLayout, ts, c.location)
		if err != nil {
			return nil, fmt.Errorf("failed to parse forecast timestamp %q: %w", ts, err)
		}
		samples = append(samples, TemperatureSample{
			Timestamp:    t,
			TemperatureC: payload.Hourly.Temperature2M[i],
		})
	}

	// The provider returns ascending timestamps; sort anyway so the window
	// selector can rely on ordering.
	sort.Slice(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})

	c.logger.Debug("Fetched hourly forecast",
		"samples", len(samples),
		"duration_ms", time.Since(start).Milliseconds())

	return samples, nil
}

func (c *openMeteoClient) requestURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid forecast URL: %w", err)
	}

	q := u.Query()
	q.Set("latitude", strconv.FormatFloat(c.latitude, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(c.longitude, 'f', 4, 64))
	q.Set("hourly", "temperature_2m")
	q.Set("timezone", c.timezone)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
