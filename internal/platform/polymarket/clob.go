package polymarket

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/alanyoungcy/crossarb/internal/crypto"
	"github.com/alanyoungcy/crossarb/internal/domain"
)

// DefaultClobURL is the production CLOB API root.
const DefaultClobURL = "https://clob.polymarket.com"

// PolygonChainID is the chain the CLOB settles on.
const PolygonChainID = 137

const zeroAddress = "0x0000000000000000000000000000000000000000"

// Order sides as posted to the CLOB.
const (
	sideBuy  = 0
	sideSell = 1
)

// ClobClient trades on the Polymarket CLOB. Orders are EIP-712 signed and
// authenticated requests carry HMAC L2 headers.
type ClobClient struct {
	baseURL    string
	httpClient *http.Client
	signer     *crypto.Signer

	// funder is the address holding the USDC, distinct from the signing key
	// when a proxy wallet is used.
	funder string

	// signatureType selects how the exchange verifies the maker:
	// 0 EOA, 1 email/magic proxy, 2 browser wallet proxy.
	signatureType int

	auth crypto.HMACAuth
}

// NewClobClient creates a CLOB client. funder may be empty, in which case
// orders are funded directly by the signing address.
func NewClobClient(baseURL string, signer *crypto.Signer, funder string, signatureType int) *ClobClient {
	if baseURL == "" {
		baseURL = DefaultClobURL
	}
	if funder == "" {
		funder = signer.Address().Hex()
	}
	return &ClobClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		signer:        signer,
		funder:        funder,
		signatureType: signatureType,
	}
}

// SetCredentials installs previously derived L2 API credentials.
func (c *ClobClient) SetCredentials(auth crypto.HMACAuth) {
	c.auth = auth
}

// DeriveAPIKey derives the L2 API credentials from the signing key and
// installs them on the client.
func (c *ClobClient) DeriveAPIKey(ctx context.Context) error {
	ts := time.Now().Unix()
	sig, err := c.signer.SignAuthMessage(c.signer.Address().Hex(), ts, 0)
	if err != nil {
		return fmt.Errorf("polymarket/clob: signing auth message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/derive-api-key", nil)
	if err != nil {
		return fmt.Errorf("polymarket/clob: create request: %w", err)
	}
	req.Header.Set("POLY_ADDRESS", c.signer.Address().Hex())
	req.Header.Set("POLY_SIGNATURE", sig)
	req.Header.Set("POLY_TIMESTAMP", strconv.FormatInt(ts, 10))
	req.Header.Set("POLY_NONCE", "0")

	body, err := c.do(req)
	if err != nil {
		return fmt.Errorf("polymarket/clob: derive api key: %w", err)
	}

	var creds apiCreds
	if err := json.Unmarshal(body, &creds); err != nil {
		return fmt.Errorf("polymarket/clob: decode api creds: %w", err)
	}
	if creds.APIKey == "" || creds.Secret == "" {
		return fmt.Errorf("polymarket/clob: derive api key returned empty credentials")
	}

	c.auth = crypto.HMACAuth{
		Address:    c.signer.Address().Hex(),
		Key:        creds.APIKey,
		Secret:     creds.Secret,
		Passphrase: creds.Passphrase,
	}
	return nil
}

// OrderBook fetches the current orderbook for a token.
func (c *ClobClient) OrderBook(ctx context.Context, tokenID string) (OrderBook, error) {
	params := url.Values{}
	params.Set("token_id", tokenID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/book?"+params.Encode(), nil)
	if err != nil {
		return OrderBook{}, fmt.Errorf("polymarket/clob: create request: %w", err)
	}

	body, err := c.do(req)
	if err != nil {
		return OrderBook{}, fmt.Errorf("polymarket/clob: get book %s: %w", tokenID, err)
	}

	var book OrderBook
	if err := json.Unmarshal(body, &book); err != nil {
		return OrderBook{}, fmt.Errorf("polymarket/clob: decode book: %w", err)
	}
	return book, nil
}

// PostOrderFOK signs and posts a fill-or-kill order. The order fills
// completely and immediately or is rejected; it never rests on the book.
func (c *ClobClient) PostOrderFOK(ctx context.Context, tokenID string, side int, price float64, size float64) (string, error) {
	if c.auth.Key == "" {
		return "", fmt.Errorf("polymarket/clob: API credentials not set")
	}

	shares := int64(math.Round(size * 1e6))
	usdc := int64(math.Round(price * size * 1e6))

	payload := crypto.OrderPayload{
		Salt:          randomSalt(),
		Maker:         c.funder,
		Signer:        c.signer.Address().Hex(),
		Taker:         zeroAddress,
		TokenID:       tokenID,
		Expiration:    "0",
		Nonce:         "0",
		FeeRateBps:    "0",
		Side:          side,
		SignatureType: c.signatureType,
	}
	wireSide := "BUY"
	if side == sideBuy {
		payload.MakerAmount = strconv.FormatInt(usdc, 10)
		payload.TakerAmount = strconv.FormatInt(shares, 10)
	} else {
		payload.MakerAmount = strconv.FormatInt(shares, 10)
		payload.TakerAmount = strconv.FormatInt(usdc, 10)
		wireSide = "SELL"
	}

	sig, err := c.signer.SignOrder(payload)
	if err != nil {
		return "", fmt.Errorf("polymarket/clob: signing order: %w", err)
	}

	reqBody, err := json.Marshal(postOrderRequest{
		Order: wireOrder{
			Salt:          payload.Salt,
			Maker:         payload.Maker,
			Signer:        payload.Signer,
			Taker:         payload.Taker,
			TokenID:       payload.TokenID,
			MakerAmount:   payload.MakerAmount,
			TakerAmount:   payload.TakerAmount,
			Expiration:    payload.Expiration,
			Nonce:         payload.Nonce,
			FeeRateBps:    payload.FeeRateBps,
			Side:          wireSide,
			SignatureType: payload.SignatureType,
			Signature:     sig,
		},
		Owner:     c.auth.Key,
		OrderType: "FOK",
	})
	if err != nil {
		return "", fmt.Errorf("polymarket/clob: marshal order: %w", err)
	}

	body, err := c.doAuthenticated(ctx, http.MethodPost, "/order", reqBody)
	if err != nil {
		return "", fmt.Errorf("polymarket/clob: post order: %w", err)
	}

	var resp postOrderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("polymarket/clob: decode order response: %w", err)
	}
	if !resp.Success {
		return "", fmt.Errorf("polymarket/clob: %s: %w", resp.ErrorMsg, domain.ErrOrderRejected)
	}
	return resp.OrderID, nil
}

// Trades returns the authenticated trade history, newest first.
func (c *ClobClient) Trades(ctx context.Context) ([]APITrade, error) {
	if c.auth.Key == "" {
		return nil, fmt.Errorf("polymarket/clob: API credentials not set")
	}

	body, err := c.doAuthenticated(ctx, http.MethodGet, "/data/trades", nil)
	if err != nil {
		return nil, fmt.Errorf("polymarket/clob: get trades: %w", err)
	}

	var trades []APITrade
	if err := json.Unmarshal(body, &trades); err != nil {
		return nil, fmt.Errorf("polymarket/clob: decode trades: %w", err)
	}
	return trades, nil
}

func (c *ClobClient) doAuthenticated(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	headers, err := c.auth.L2Headers(method, path, string(body))
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req)
}

func (c *ClobClient) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

// randomSalt returns a random decimal salt for order uniqueness.
func randomSalt() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return strconv.FormatUint(binary.BigEndian.Uint64(b[:])>>1, 10)
}
