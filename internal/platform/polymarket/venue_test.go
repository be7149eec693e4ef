package polymarket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/crossarb/internal/crypto"
	"github.com/alanyoungcy/crossarb/internal/domain"
)

const testKeyHex = "0000000000000000000000000000000000000000000000000000000000000001"

func newTestClob(t *testing.T, serverURL string) *ClobClient {
	t.Helper()

	signer, err := crypto.NewSigner(testKeyHex, PolygonChainID)
	require.NoError(t, err)

	c := NewClobClient(serverURL, signer, "", 0)
	c.SetCredentials(crypto.HMACAuth{
		Address:    signer.Address().Hex(),
		Key:        "api-key",
		Secret:     "c2VjcmV0", // urlsafe base64 of "secret"
		Passphrase: "pass",
	})
	return c
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestStringArray_DecodesBothEncodings(t *testing.T) {
	var direct, nested struct {
		IDs stringArray `json:"ids"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"ids": ["a", "b"]}`), &direct))
	assert.Equal(t, stringArray{"a", "b"}, direct.IDs)

	require.NoError(t, json.Unmarshal([]byte(`{"ids": "[\"a\", \"b\"]"}`), &nested))
	assert.Equal(t, stringArray{"a", "b"}, nested.IDs)
}

func TestFlexFloat_DecodesNumbersAndStrings(t *testing.T) {
	var m struct {
		A flexFloat  `json:"a"`
		B flexFloat  `json:"b"`
		C *flexFloat `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 0.55, "b": "0.45"}`), &m))
	assert.InDelta(t, 0.55, float64(m.A), 1e-9)
	assert.InDelta(t, 0.45, float64(m.B), 1e-9)
	assert.Nil(t, m.C)
}

func TestSnapshot_ResolvesGameMarkets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sports":
			json.NewEncoder(w).Encode([]APISport{
				{Sport: "nfl", Series: "1"},
				{Sport: "golf", Series: "9"},
			})
		case "/events":
			assert.Equal(t, "1", r.URL.Query().Get("series_id"))
			json.NewEncoder(w).Encode([]APIEvent{{
				Slug: "nfl-buf-den-2026-01-17",
				Markets: []APIMarket{
					{
						Question:     "Bills vs. Broncos Winner",
						Slug:         "nfl-buf-den-winner",
						ClobTokenIDs: stringArray{"tok-yes", "tok-no"},
						Outcomes:     stringArray{"Bills", "Broncos"},
						BestBid:      ptr(flexFloat(0.40)),
						BestAsk:      ptr(flexFloat(0.45)),
						VolumeNum:    5000,
						Volume24hr:   800,
					},
					{
						Question:     "Josh Allen passing yards",
						Slug:         "nfl-allen-yards",
						ClobTokenIDs: stringArray{"x", "y"},
					},
				},
			}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	v := NewVenueAdapter(NewGammaClient(srv.URL), nil, nil, discardLogger())
	markets, err := v.Snapshot(t.Context())
	require.NoError(t, err)

	require.Len(t, markets, 1, "prop market must be excluded")
	m := markets[0]
	assert.Equal(t, domain.VenuePolymarket, m.Venue)
	assert.Equal(t, "nfl", m.Game.Sport)
	assert.Equal(t, domain.MarketWinner, m.Type)
	assert.Equal(t, [2]string{"tok-yes", "tok-no"}, m.TokenIDs)
	assert.InDelta(t, 0.45, m.YesCost, 1e-9)
	assert.InDelta(t, 0.60, m.NoCost, 1e-9)
}

func TestPlaceImmediate_CrossesSpreadWithFOK(t *testing.T) {
	var posted postOrderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/book":
			assert.Equal(t, "tok-yes", r.URL.Query().Get("token_id"))
			json.NewEncoder(w).Encode(OrderBook{
				Asks: []BookLevel{{Price: "0.45", Size: "100"}},
			})
		case "/order":
			assert.NotEmpty(t, r.Header.Get("POLY_SIGNATURE"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
			json.NewEncoder(w).Encode(postOrderResponse{Success: true, OrderID: "ord-9", Status: "matched"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	v := NewVenueAdapter(nil, newTestClob(t, srv.URL), nil, discardLogger())
	m := &domain.CanonicalMarket{Handle: "h", TokenIDs: [2]string{"tok-yes", "tok-no"}}

	res, err := v.PlaceImmediate(t.Context(), m, domain.SideYes, 10)
	require.NoError(t, err)

	assert.Equal(t, "ord-9", res.OrderID)
	assert.Equal(t, 10, res.FilledCount)
	assert.InDelta(t, 0.46, res.AvgPrice, 1e-9, "one tick through the ask")

	assert.Equal(t, "FOK", posted.OrderType)
	assert.Equal(t, "BUY", posted.Order.Side)
	assert.Equal(t, "tok-yes", posted.Order.TokenID)
	assert.Equal(t, "4600000", posted.Order.MakerAmount, "USDC in, 6 decimals")
	assert.Equal(t, "10000000", posted.Order.TakerAmount, "shares out, 6 decimals")
	assert.NotEmpty(t, posted.Order.Signature)
}

func TestPlaceImmediate_RejectsBelowMinNotional(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(OrderBook{Asks: []BookLevel{{Price: "0.10", Size: "100"}}})
	}))
	defer srv.Close()

	v := NewVenueAdapter(nil, newTestClob(t, srv.URL), nil, discardLogger())
	m := &domain.CanonicalMarket{Handle: "h", TokenIDs: [2]string{"a", "b"}}

	_, err := v.PlaceImmediate(t.Context(), m, domain.SideYes, 5)
	assert.ErrorIs(t, err, domain.ErrOrderRejected)
	assert.ErrorContains(t, err, "minimum")
}

func TestPlaceImmediate_RejectsThinBook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(OrderBook{Asks: []BookLevel{{Price: "0.50", Size: "3"}}})
	}))
	defer srv.Close()

	v := NewVenueAdapter(nil, newTestClob(t, srv.URL), nil, discardLogger())
	m := &domain.CanonicalMarket{Handle: "h", TokenIDs: [2]string{"a", "b"}}

	_, err := v.PlaceImmediate(t.Context(), m, domain.SideYes, 10)
	assert.ErrorIs(t, err, domain.ErrOrderRejected)
	assert.ErrorContains(t, err, "only 3.00 at best ask")
}

func TestCloseImmediate_SellsThroughBid(t *testing.T) {
	var posted postOrderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/book":
			json.NewEncoder(w).Encode(OrderBook{Bids: []BookLevel{{Price: "0.40", Size: "50"}}})
		case "/order":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
			json.NewEncoder(w).Encode(postOrderResponse{Success: true, OrderID: "ord-s"})
		}
	}))
	defer srv.Close()

	v := NewVenueAdapter(nil, newTestClob(t, srv.URL), nil, discardLogger())
	m := &domain.CanonicalMarket{Handle: "h", TokenIDs: [2]string{"tok-yes", "tok-no"}}

	res, err := v.CloseImmediate(t.Context(), m, domain.SideNo, 8)
	require.NoError(t, err)

	assert.InDelta(t, 0.39, res.AvgPrice, 1e-9, "one tick under the bid")
	assert.Equal(t, "SELL", posted.Order.Side)
	assert.Equal(t, "tok-no", posted.Order.TokenID)
	assert.Equal(t, "8000000", posted.Order.MakerAmount, "shares in")
	assert.Equal(t, "3120000", posted.Order.TakerAmount, "USDC out")
}

func TestPostOrderFOK_RejectionMapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/book":
			json.NewEncoder(w).Encode(OrderBook{Asks: []BookLevel{{Price: "0.50", Size: "100"}}})
		case "/order":
			json.NewEncoder(w).Encode(postOrderResponse{Success: false, ErrorMsg: "not enough balance"})
		}
	}))
	defer srv.Close()

	v := NewVenueAdapter(nil, newTestClob(t, srv.URL), nil, discardLogger())
	m := &domain.CanonicalMarket{Handle: "h", TokenIDs: [2]string{"a", "b"}}

	_, err := v.PlaceImmediate(t.Context(), m, domain.SideYes, 10)
	assert.ErrorIs(t, err, domain.ErrOrderRejected)
	assert.ErrorContains(t, err, "not enough balance")
}

func ptr[T any](v T) *T { return &v }
