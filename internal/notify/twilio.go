// Package notify delivers SMS alerts through the Twilio REST API.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	twilioBaseURL  = "https://api.twilio.com/2010-04-01"
	requestTimeout = 10 * time.Second
)

// TwilioNotifier sends text messages. All failures are soft: the caller logs
// them and moves on, an unreachable SMS provider never affects ingestion.
type TwilioNotifier struct {
	http       *resty.Client
	accountSID string
	from       string
	logger     *slog.Logger
}

// NewTwilioNotifier creates a notifier using the given account credentials
// and sender number.
func NewTwilioNotifier(accountSID, authToken, from string, logger *slog.Logger) *TwilioNotifier {
	client := resty.New().
		SetBaseURL(twilioBaseURL).
		SetBasicAuth(accountSID, authToken).
		SetTimeout(requestTimeout)

	return &TwilioNotifier{
		http:       client,
		accountSID: accountSID,
		from:       from,
		logger:     logger,
	}
}

// Send delivers one SMS and returns the provider's message SID.
func (n *TwilioNotifier) Send(ctx context.Context, body, to string) (string, error) {
	var out struct {
		SID string `json:"sid"`
	}

	resp, err := n.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"Body": body,
			"From": n.from,
			"To":   to,
		}).
		SetResult(&out).
		Post(fmt.Sprintf("/Accounts/%s/Messages.json", n.accountSID))
	if err != nil {
		return "", fmt.Errorf("send sms: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("send sms: status %d: %s", resp.StatusCode(), resp.String())
	}

	n.logger.Info("sms sent", "to", to, "sid", out.SID)
	return out.SID, nil
}
