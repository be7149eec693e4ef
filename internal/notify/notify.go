// Package notify delivers operator alerts over Telegram and Discord. Alerts
// cover execution outcomes and safety events such as naked positions and
// trading halts; delivery is best effort and never blocks trading decisions.
package notify

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

// Sender is a single delivery channel.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name identifies the channel, e.g. "telegram".
	Name() string
}

// Fanout dispatches each alert to every configured sender. A failing sender
// is logged and skipped; the remaining senders still receive the alert.
type Fanout struct {
	senders []Sender
	logger  *slog.Logger
}

// NewFanout creates a Fanout over the given senders. An empty sender list is
// valid and turns every alert into a log line only.
func NewFanout(senders []Sender, logger *slog.Logger) *Fanout {
	return &Fanout{
		senders: senders,
		logger:  logger.With(slog.String("component", "notify")),
	}
}

// Alert delivers to all senders. Failures are swallowed: an unreachable chat
// must never abort the compensation or halt path that raised the alert.
func (f *Fanout) Alert(ctx context.Context, title, message string) {
	f.logger.Info("alert",
		slog.String("title", title),
		slog.String("message", message))

	for _, s := range f.senders {
		if err := s.Send(ctx, title, message); err != nil {
			f.logger.Error("sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()))
		}
	}
}

// postJSON sends a JSON payload and checks for a 2xx response.
func postJSON(ctx context.Context, client *http.Client, url string, payload any, label string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: marshal payload: %w", label, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", label, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: send request: %w", label, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s: unexpected status %d: %s", label, resp.StatusCode, string(respBody))
	}
	return nil
}

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}
