package hardening

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/the3rdPoliceman/plant-hardener/internal/forecast"
)

// DecisionRecord is one evaluated decision in the Postgres audit log
type DecisionRecord struct {
	ID          uuid.UUID
	DecidedAt   time.Time
	Location    string
	WindowKind  forecast.WindowKind
	WindowStart time.Time
	WindowEnd   time.Time
	MinTempC    float64
	ThresholdC  float64
	Verdict     Placement
	Changed     bool
	Notified    bool
}

// AuditLog records evaluated decisions in Postgres for later inspection.
// It is optional infrastructure: the placement contract never depends on it.
type AuditLog struct {
	db *sql.DB
}

// NewAuditLog creates an audit log over an open database handle
func NewAuditLog(db *sql.DB) *AuditLog {
	return &AuditLog{db: db}
}

// EnsureSchema creates the audit table if it does not exist
func (a *AuditLog) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS plant_decisions (
			id UUID PRIMARY KEY,
			decided_at TIMESTAMPTZ NOT NULL,
			location TEXT NOT NULL,
			window_kind TEXT NOT NULL,
			window_start TIMESTAMPTZ NOT NULL,
			window_end TIMESTAMPTZ NOT NULL,
			min_temp_c DOUBLE PRECISION NOT NULL,
			threshold_c DOUBLE PRECISION NOT NULL,
			verdict TEXT NOT NULL,
			changed BOOLEAN NOT NULL,
			notified BOOLEAN NOT NULL
		)
	`
	if _, err := a.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create plant_decisions table: %w", err)
	}
	return nil
}

// Record inserts one decision into the audit table
func (a *AuditLog) Record(ctx context.Context, rec DecisionRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.DecidedAt.IsZero() {
		rec.DecidedAt = time.Now()
	}

	query := `
		INSERT INTO plant_decisions (
			id, decided_at, location, window_kind, window_start, window_end,
			min_temp_c, threshold_c, verdict, changed, notified
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := a.db.ExecContext(ctx, query,
		rec.ID,
		rec.DecidedAt,
		rec.Location,
		string(rec.WindowKind),
		rec.WindowStart,
		rec.WindowEnd,
		rec.MinTempC,
		rec.ThresholdC,
		string(rec.Verdict),
		rec.Changed,
		rec.Notified,
	)
	if err != nil {
		return fmt.Errorf("failed to insert decision record: %w", err)
	}

	return nil
}
