package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSender struct {
	name  string
	err   error
	calls []string
}

func (s *stubSender) Send(_ context.Context, title, _ string) error {
	s.calls = append(s.calls, title)
	return s.err
}

func (s *stubSender) Name() string { return s.name }

func TestFanout_DeliversToAllSenders(t *testing.T) {
	a := &stubSender{name: "a"}
	b := &stubSender{name: "b"}
	f := NewFanout([]Sender{a, b}, slog.New(slog.DiscardHandler))

	f.Alert(t.Context(), "NAKED POSITION", "details")

	assert.Equal(t, []string{"NAKED POSITION"}, a.calls)
	assert.Equal(t, []string{"NAKED POSITION"}, b.calls)
}

func TestFanout_FailingSenderDoesNotBlockOthers(t *testing.T) {
	bad := &stubSender{name: "bad", err: errors.New("unreachable")}
	good := &stubSender{name: "good"}
	f := NewFanout([]Sender{bad, good}, slog.New(slog.DiscardHandler))

	f.Alert(t.Context(), "halt", "msg")

	assert.Len(t, good.calls, 1)
}

func TestFanout_NoSenders(t *testing.T) {
	f := NewFanout(nil, slog.New(slog.DiscardHandler))
	f.Alert(t.Context(), "t", "m")
}

func TestDiscordSender_PostsWebhookPayload(t *testing.T) {
	var payload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewDiscordSender(srv.URL)
	require.NoError(t, d.Send(t.Context(), "Trade executed", "locked $0.44"))

	assert.Equal(t, "**Trade executed**\nlocked $0.44", payload["content"])
}

func TestDiscordSender_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	d := NewDiscordSender(srv.URL)
	err := d.Send(t.Context(), "t", "m")
	assert.ErrorContains(t, err, "429")
}
