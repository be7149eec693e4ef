package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"
)

// HMACAuth holds the L2 API credentials issued by the Polymarket CLOB.
type HMACAuth struct {
	// Address is the wallet address the API key was derived for.
	Address string

	// Key is the API key UUID.
	Key string

	// Secret is the urlsafe-base64 encoded HMAC secret.
	Secret string

	// Passphrase accompanies every authenticated request.
	Passphrase string
}

// L2Headers builds the authentication headers for a CLOB request. body must
// be the exact serialized request body, or empty for GET requests.
func (a HMACAuth) L2Headers(method, path, body string) (map[string]string, error) {
	return a.L2HeadersAt(method, path, body, time.Now().Unix())
}

// L2HeadersAt is L2Headers with an explicit unix timestamp.
func (a HMACAuth) L2HeadersAt(method, path, body string, timestamp int64) (map[string]string, error) {
	secret, err := base64.URLEncoding.DecodeString(a.Secret)
	if err != nil {
		return nil, fmt.Errorf("crypto/hmac: decoding secret: %w", err)
	}

	ts := strconv.FormatInt(timestamp, 10)
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(ts + method + path + body))
	sig := base64.URLEncoding.EncodeToString(mac.Sum(nil))

	return map[string]string{
		"POLY_ADDRESS":    a.Address,
		"POLY_API_KEY":    a.Key,
		"POLY_TIMESTAMP":  ts,
		"POLY_PASSPHRASE": a.Passphrase,
		"POLY_SIGNATURE":  sig,
	}, nil
}
