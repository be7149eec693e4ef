package kalshi

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/crossarb/internal/domain"
)

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	c := NewClient(serverURL, "test-key-id")
	require.NoError(t, c.SetRSAPrivateKey(pemBytes))
	return c
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestClient_SignsRequests(t *testing.T) {
	var gotKey, gotSig, gotTS string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("KALSHI-ACCESS-KEY")
		gotSig = r.Header.Get("KALSHI-ACCESS-SIGNATURE")
		gotTS = r.Header.Get("KALSHI-ACCESS-TIMESTAMP")
		json.NewEncoder(w).Encode(balanceResponse{Balance: 12345})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	cents, err := c.BalanceCents(t.Context())
	require.NoError(t, err)

	assert.Equal(t, int64(12345), cents)
	assert.Equal(t, "test-key-id", gotKey)
	assert.NotEmpty(t, gotSig)
	assert.NotEmpty(t, gotTS)
}

func TestClient_UnsignedRequestFails(t *testing.T) {
	c := NewClient("http://localhost:1", "key")
	_, err := c.BalanceCents(t.Context())
	assert.ErrorContains(t, err, "private key not configured")
}

func TestClient_StatusMapping(t *testing.T) {
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(errorResponse{Code: "x", Message: "boom"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	status = http.StatusUnauthorized
	_, err := c.BalanceCents(t.Context())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	status = http.StatusTooManyRequests
	_, err = c.BalanceCents(t.Context())
	assert.ErrorIs(t, err, domain.ErrRateLimited)

	status = http.StatusBadRequest
	_, err = c.BalanceCents(t.Context())
	assert.ErrorIs(t, err, domain.ErrOrderRejected)
}

func TestSnapshot_ResolvesOpenMarkets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		series := r.URL.Query().Get("series_ticker")
		resp := marketsResponse{}
		if series == "KXNFLGAME" {
			resp.Markets = []Market{
				{
					Ticker:       "KXNFLGAME-26JAN17BUFDEN-DEN",
					EventTicker:  "KXNFLGAME-26JAN17BUFDEN",
					Title:        "Denver Broncos Winner?",
					Status:       "open",
					YesAsk:       70,
					OpenInterest: 500,
					Volume24H:    1200,
				},
				{
					Ticker:      "KXNFLGAME-26JAN17BUFDEN-BUF",
					EventTicker: "KXNFLGAME-26JAN17BUFDEN",
					Title:       "Buffalo Bills Winner?",
					Status:      "closed",
					YesAsk:      35,
				},
			}
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	v := NewVenueAdapter(newTestClient(t, srv.URL), discardLogger())
	markets, err := v.Snapshot(t.Context())
	require.NoError(t, err)

	require.Len(t, markets, 1, "closed market must be excluded")
	m := markets[0]
	assert.Equal(t, domain.VenueKalshi, m.Venue)
	assert.Equal(t, "nfl", m.Game.Sport)
	assert.Equal(t, domain.MarketWinner, m.Type)
	assert.InDelta(t, 0.70, m.YesCost, 1e-9)
	assert.InDelta(t, 0.30, m.NoCost, 1e-9)
}

func TestPlaceImmediate_TakerPriced(t *testing.T) {
	var got Order
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(orderResponse{Order: OrderStatus{
			OrderID:        "ord-1",
			Status:         "executed",
			TakerFillCount: 5,
			TakerFillCost:  350,
		}})
	}))
	defer srv.Close()

	v := NewVenueAdapter(newTestClient(t, srv.URL), discardLogger())
	m := &domain.CanonicalMarket{Handle: "KXNFLGAME-26JAN17BUFDEN-DEN"}

	res, err := v.PlaceImmediate(t.Context(), m, domain.SideYes, 5)
	require.NoError(t, err)

	assert.Equal(t, "buy", got.Action)
	assert.Equal(t, "yes", got.Side)
	require.NotNil(t, got.YesPrice)
	assert.Equal(t, 99, *got.YesPrice, "buy orders must always cross the spread")
	assert.Nil(t, got.NoPrice)

	assert.Equal(t, "ord-1", res.OrderID)
	assert.Equal(t, 5, res.FilledCount)
	assert.InDelta(t, 0.70, res.AvgPrice, 1e-9)
}

func TestPlaceImmediate_RestingOrderFlattened(t *testing.T) {
	var orders []Order
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var o Order
		require.NoError(t, json.NewDecoder(r.Body).Decode(&o))
		orders = append(orders, o)

		status := "resting"
		if o.Action == "sell" {
			status = "executed"
		}
		json.NewEncoder(w).Encode(orderResponse{Order: OrderStatus{OrderID: "ord-x", Status: status}})
	}))
	defer srv.Close()

	v := NewVenueAdapter(newTestClient(t, srv.URL), discardLogger())
	m := &domain.CanonicalMarket{Handle: "T"}

	_, err := v.PlaceImmediate(t.Context(), m, domain.SideNo, 3)
	assert.ErrorIs(t, err, domain.ErrOrderRejected)

	require.Len(t, orders, 2, "resting buy must trigger an immediate sell")
	assert.Equal(t, "sell", orders[1].Action)
	assert.Equal(t, "no", orders[1].Side)
	require.NotNil(t, orders[1].NoPrice)
	assert.Equal(t, 1, *orders[1].NoPrice)
}

func TestRecentFills_FiltersBySince(t *testing.T) {
	now := time.Now().UTC()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(fillsResponse{Fills: []Fill{
			{OrderID: "old", Ticker: "T", Side: "yes", Count: 2, YesPrice: 40,
				CreatedTime: now.Add(-time.Hour).Format(time.RFC3339)},
			{OrderID: "new", Ticker: "T", Side: "no", Count: 3, NoPrice: 25,
				CreatedTime: now.Format(time.RFC3339)},
		}})
	}))
	defer srv.Close()

	v := NewVenueAdapter(newTestClient(t, srv.URL), discardLogger())
	fills, err := v.RecentFills(t.Context(), now.Add(-time.Minute))
	require.NoError(t, err)

	require.Len(t, fills, 1)
	assert.Equal(t, "new", fills[0].OrderID)
	assert.Equal(t, domain.SideNo, fills[0].Side)
	assert.InDelta(t, 0.25, fills[0].AvgPrice, 1e-9)
}
