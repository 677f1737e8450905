package postgres

import (
	"context"
	"database/sql"
)

// Client represents a Postgres client interface for testing and abstraction
type Client interface {
	// Connect establishes connection to the database
	Connect(ctx context.Context) error

	// Disconnect closes the database connection
	Disconnect() error

	// DB returns the underlying database connection pool
	DB() *sql.DB

	// IsConnected returns whether the client is connected
	IsConnected() bool

	// Ping verifies the database connection
	Ping(ctx context.Context) error
}
