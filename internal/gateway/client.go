// Package gateway submits broadcast requests to the bridge over HTTP.
//
// The ingestion API and the broadcast bridge run in separate processes; this
// client is the only coupling between them. Submissions are fire-and-forget
// with a bounded timeout: a dead or slow bridge surfaces as
// ErrGatewayUnavailable, which callers log and swallow so fan-out can never
// fail an ingestion request.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/couchcryptid/coastal-threat-bridge/internal/domain"
)

// ErrGatewayUnavailable reports that a broadcast submission did not reach the
// bridge. Always soft: best-effort fan-out, no retry.
var ErrGatewayUnavailable = errors.New("broadcast gateway unavailable")

// Client posts tagged broadcast frames to the bridge's publish endpoint.
type Client struct {
	http   *resty.Client
	url    string
	logger *slog.Logger
}

// NewClient creates a gateway client for the given broadcast URL.
func NewClient(broadcastURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		http:   resty.New().SetTimeout(timeout),
		url:    broadcastURL,
		logger: logger,
	}
}

// PublishReading submits a raw reading for fan-out.
func (c *Client) PublishReading(ctx context.Context, r domain.Reading) error {
	return c.submit(ctx, domain.NewReadingMessage(r))
}

// PublishAlert submits a persisted alert for fan-out.
func (c *Client) PublishAlert(ctx context.Context, a domain.Alert) error {
	return c.submit(ctx, domain.NewAlertMessage(a))
}

func (c *Client) submit(ctx context.Context, msg domain.BroadcastMessage) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(msg).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: status %d: %s", ErrGatewayUnavailable, resp.StatusCode(), resp.String())
	}
	c.logger.Debug("broadcast submitted", "type", msg.Type())
	return nil
}
