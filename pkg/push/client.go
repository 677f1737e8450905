package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Client is the interface for push notification delivery
type Client interface {
	// Send delivers a push notification
	Send(ctx context.Context, msg Message) error
}

// Message represents a push notification
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// httpClient implements Client against a simple JSON push endpoint
type httpClient struct {
	endpoint   string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPClient creates a push client that POSTs notifications to endpoint.
// token, when non-empty, is sent as a bearer token.
func NewHTTPClient(endpoint, token string, logger *slog.Logger) Client {
	return &httpClient{
		endpoint: endpoint,
		token:    token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Send delivers a push notification
func (c *httpClient) Send(ctx context.Context, msg Message) error {
	if msg.Body == "" {
		return fmt.Errorf("message body is required")
	}

	reqBody, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal push message: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewBuffer(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("Sending push notification",
		"endpoint", c.endpoint,
		"title", msg.Title,
		"body_length", len(msg.Body))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("push request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("push endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
