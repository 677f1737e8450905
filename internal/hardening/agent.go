package hardening

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/the3rdPoliceman/plant-hardener/internal/forecast"
	"github.com/the3rdPoliceman/plant-hardener/pkg/config"
	"github.com/the3rdPoliceman/plant-hardener/pkg/mqtt"
)

// Outcome classifies one evaluation run
type Outcome string

const (
	// OutcomeDecided means the verdict changed: notified and persisted
	OutcomeDecided Outcome = "decided"
	// OutcomeUnchanged means the verdict matched the prior state: no-op
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeSkipped means the forecast could not cover the window
	OutcomeSkipped Outcome = "skipped"
)

// EvaluationResult summarizes one evaluation run
type EvaluationResult struct {
	ID       string
	Outcome  Outcome
	Window   forecast.EvaluationWindow
	Decision *Decision
	Message  string
}

// HistoryAppender records evaluated decisions in the bounded history list
type HistoryAppender interface {
	AppendHistory(ctx context.Context, entry HistoryEntry) error
}

// Agent runs the placement evaluation cycle: fetch forecast, select window,
// decide, notify on change, commit state
type Agent struct {
	source   forecast.Source
	store    StateStore
	notifier Notifier
	cfg      *config.Config
	logger   *slog.Logger

	// Optional collaborators, nil when disabled
	history HistoryAppender
	audit   *AuditLog
	mqtt    mqtt.Client

	nightStart forecast.ClockTime
	nightEnd   forecast.ClockTime
	location   *time.Location

	ticker   *time.Ticker
	stopChan chan struct{}
}

// NewAgent creates the hardening agent. history, audit and mqttClient may be
// nil; the core decision contract does not depend on them.
func NewAgent(
	source forecast.Source,
	store StateStore,
	notifier Notifier,
	cfg *config.Config,
	logger *slog.Logger,
) (*Agent, error) {
	nightStart, err := forecast.ParseClockTime(cfg.NightStart)
	if err != nil {
		return nil, fmt.Errorf("invalid night start: %w", err)
	}
	nightEnd, err := forecast.ParseClockTime(cfg.NightEnd)
	if err != nil {
		return nil, fmt.Errorf("invalid night end: %w", err)
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	return &Agent{
		source:     source,
		store:      store,
		notifier:   notifier,
		cfg:        cfg,
		logger:     logger,
		nightStart: nightStart,
		nightEnd:   nightEnd,
		location:   loc,
		stopChan:   make(chan struct{}),
	}, nil
}

// WithHistory attaches the bounded Redis decision history
func (a *Agent) WithHistory(history HistoryAppender) *Agent {
	a.history = history
	return a
}

// WithAuditLog attaches the Postgres decision audit log
func (a *Agent) WithAuditLog(audit *AuditLog) *Agent {
	a.audit = audit
	return a
}

// WithContextPublisher attaches an MQTT client for retained placement
// context messages
func (a *Agent) WithContextPublisher(client mqtt.Client) *Agent {
	a.mqtt = client
	return a
}

// Start runs the periodic evaluation loop until the context is cancelled.
// One evaluation runs immediately on startup.
func (a *Agent) Start(ctx context.Context) error {
	interval := time.Duration(a.cfg.EvalIntervalSec) * time.Second
	a.logger.Info("Starting hardening agent",
		"service_name", a.cfg.ServiceName,
		"location", a.cfg.LocationID,
		"threshold_c", a.cfg.ThresholdC,
		"forecast_hours", a.cfg.ForecastHours,
		"eval_interval_sec", a.cfg.EvalIntervalSec)

	a.runEvaluation(ctx)

	a.ticker = time.NewTicker(interval)
	for {
		select {
		case <-a.ticker.C:
			a.runEvaluation(ctx)
		case <-a.stopChan:
			return nil
		case <-ctx.Done():
			a.logger.Info("Hardening agent stopping")
			return nil
		}
	}
}

// Stop gracefully stops the evaluation loop
func (a *Agent) Stop() {
	a.logger.Info("Stopping hardening agent")
	if a.ticker != nil {
		a.ticker.Stop()
	}
	close(a.stopChan)
}

// EvaluateNow runs one evaluation at the current instant in the configured
// timezone
func (a *Agent) EvaluateNow(ctx context.Context) (*EvaluationResult, error) {
	return a.Evaluate(ctx, time.Now().In(a.location))
}

// runEvaluation performs one evaluation and logs the outcome. Loop mode
// never aborts on evaluation errors; the next tick is the retry.
func (a *Agent) runEvaluation(ctx context.Context) {
	result, err := a.EvaluateNow(ctx)
	if err != nil {
		a.logger.Error("Evaluation failed", "error", err)
		return
	}
	a.logger.Info("Evaluation complete",
		"evaluation_id", result.ID,
		"outcome", result.Outcome)
}

// Evaluate performs one full decide cycle at the given instant. A run either
// completes the cycle or aborts before any state mutation.
//
// Insufficient forecast coverage yields a skipped result without error: the
// caller logs and waits for the next scheduled run. State store failures and
// notification delivery failures are returned as errors; in both cases the
// persisted state is left untouched.
func (a *Agent) Evaluate(ctx context.Context, now time.Time) (*EvaluationResult, error) {
	evalID := uuid.New().String()
	logger := a.logger.With("evaluation_id", evalID)

	samples, err := a.source.HourlyTemperatures(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}

	window, windowed, err := forecast.SelectWindow(now, samples, a.windowConfig(now))
	if err != nil {
		if errors.Is(err, forecast.ErrInsufficientForecastData) {
			logger.Warn("Skipping evaluation, forecast does not cover window",
				"window_kind", window.Kind,
				"window_start", window.Start.Format(time.RFC3339),
				"window_end", window.End.Format(time.RFC3339),
				"error", err)
			return &EvaluationResult{ID: evalID, Outcome: OutcomeSkipped, Window: window}, nil
		}
		return nil, err
	}

	// State read happens-before decision computation
	prior, err := a.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	dec := Decide(windowed, a.cfg.ThresholdC, prior)
	logger.Debug("Computed placement verdict",
		"window_kind", window.Kind,
		"samples", dec.SampleCount,
		"min_temp_c", dec.MinTempC,
		"threshold_c", a.cfg.ThresholdC,
		"verdict", dec.Verdict,
		"changed", dec.Changed)

	result := &EvaluationResult{
		ID:       evalID,
		Window:   window,
		Decision: &dec,
	}

	if !dec.Changed {
		result.Outcome = OutcomeUnchanged
		a.recordDecision(ctx, logger, evalID, now, window, dec, false)
		return result, nil
	}

	// Notification dispatch must be confirmed before the state commit, so a
	// failed dispatch leaves the old state in place and the next run retries.
	message := BuildMessage(window, dec, a.cfg.ThresholdC)
	if err := a.notifier.Notify(ctx, NotificationTitle, message); err != nil {
		return result, err
	}

	if err := a.store.Save(ctx, PersistedState{Placement: dec.Verdict, LastUpdated: now}); err != nil {
		return result, err
	}

	logger.Info("Placement changed",
		"verdict", dec.Verdict,
		"min_temp_c", dec.MinTempC,
		"window_kind", window.Kind)

	result.Outcome = OutcomeDecided
	result.Message = message
	a.recordDecision(ctx, logger, evalID, now, window, dec, true)
	a.publishContext(logger, evalID, now, window, dec)

	return result, nil
}

// windowConfig builds the per-run window parameters. Night bounds come from
// sunset/sunrise when night-from-sun is enabled, otherwise from the fixed
// configured clock times.
func (a *Agent) windowConfig(now time.Time) forecast.WindowConfig {
	nightStart, nightEnd := a.nightStart, a.nightEnd
	if a.cfg.NightFromSun {
		nightStart, nightEnd = forecast.NightBoundsFromSun(now, a.cfg.Latitude, a.cfg.Longitude)
	}
	return forecast.WindowConfig{
		ForecastHours: a.cfg.ForecastHours,
		NightStart:    nightStart,
		NightEnd:      nightEnd,
	}
}

// recordDecision appends the decision to the history ring and the audit log.
// Best-effort: failures are logged and never affect the run outcome.
func (a *Agent) recordDecision(ctx context.Context, logger *slog.Logger, evalID string, now time.Time, window forecast.EvaluationWindow, dec Decision, notified bool) {
	if a.history != nil {
		entry := HistoryEntry{
			EvaluationID: evalID,
			DecidedAt:    now,
			WindowKind:   string(window.Kind),
			MinTempC:     dec.MinTempC,
			ThresholdC:   a.cfg.ThresholdC,
			Verdict:      dec.Verdict,
			Changed:      dec.Changed,
		}
		if err := a.history.AppendHistory(ctx, entry); err != nil {
			logger.Warn("Failed to append decision history", "error", err)
		}
	}

	if a.audit != nil {
		rec := DecisionRecord{
			ID:          uuid.MustParse(evalID),
			DecidedAt:   now,
			Location:    a.cfg.LocationID,
			WindowKind:  window.Kind,
			WindowStart: window.Start,
			WindowEnd:   window.End,
			MinTempC:    dec.MinTempC,
			ThresholdC:  a.cfg.ThresholdC,
			Verdict:     dec.Verdict,
			Changed:     dec.Changed,
			Notified:    notified,
		}
		if err := a.audit.Record(ctx, rec); err != nil {
			logger.Warn("Failed to record decision in audit log", "error", err)
		}
	}
}

// publishContext publishes the committed placement as a retained MQTT
// context message so other agents can read the current state. Best-effort.
func (a *Agent) publishContext(logger *slog.Logger, evalID string, now time.Time, window forecast.EvaluationWindow, dec Decision) {
	if a.mqtt == nil {
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"evaluation_id": evalID,
		"location":      a.cfg.LocationID,
		"placement":     dec.Verdict,
		"min_temp_c":    dec.MinTempC,
		"threshold_c":   a.cfg.ThresholdC,
		"window_kind":   window.Kind,
		"window_start":  window.Start.Format(time.RFC3339),
		"window_end":    window.End.Format(time.RFC3339),
		"updated_at":    now.Format(time.RFC3339),
	})
	if err != nil {
		logger.Warn("Failed to marshal placement context", "error", err)
		return
	}

	topic := mqtt.ContextTopic(a.cfg.LocationID)
	if err := a.mqtt.Publish(topic, 0, true, payload); err != nil {
		logger.Warn("Failed to publish placement context", "topic", topic, "error", err)
	}
}
