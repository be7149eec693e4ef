package crypto

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Private key 0x01 has the well-known derived address below.
const (
	testKeyHex  = "0000000000000000000000000000000000000000000000000000000000000001"
	testAddress = "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf"
)

func TestEncryptDecryptKey_RoundTrip(t *testing.T) {
	blob, err := EncryptKey("0x"+testKeyHex, "hunter2")
	require.NoError(t, err)

	got, err := DecryptKey(blob, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, testKeyHex, got)
}

func TestDecryptKey_WrongPassword(t *testing.T) {
	blob, err := EncryptKey(testKeyHex, "correct")
	require.NoError(t, err)

	_, err = DecryptKey(blob, "wrong")
	assert.Error(t, err)
}

func TestEncryptKey_RejectsBadInput(t *testing.T) {
	_, err := EncryptKey(testKeyHex, "")
	assert.Error(t, err)

	_, err = EncryptKey("not-hex", "pw")
	assert.Error(t, err)

	_, err = EncryptKey("abcd", "pw")
	assert.Error(t, err, "short keys must be rejected")
}

func TestLoadKey_RawWinsOverFile(t *testing.T) {
	got, err := LoadKey(KeyConfig{
		RawPrivateKey:    "0x" + testKeyHex,
		EncryptedKeyPath: "/nonexistent/key.json",
	})
	require.NoError(t, err)
	assert.Equal(t, testKeyHex, got)
}

func TestLoadKey_NoSource(t *testing.T) {
	_, err := LoadKey(KeyConfig{})
	assert.Error(t, err)
}

func TestSigner_Address(t *testing.T) {
	s, err := NewSigner(testKeyHex, 137)
	require.NoError(t, err)
	assert.Equal(t, testAddress, s.Address().Hex())
}

func TestSigner_SignAuthMessage(t *testing.T) {
	s, err := NewSigner(testKeyHex, 137)
	require.NoError(t, err)

	sig, err := s.SignAuthMessage(testAddress, 1700000000, 0)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sig, "0x"))
	assert.Len(t, sig, 132, "65-byte signature hex encoded")
	v := sig[len(sig)-2:]
	assert.Contains(t, []string{"1b", "1c"}, v, "v must be 27 or 28")
}

func TestSigner_SignOrder_Deterministic(t *testing.T) {
	s, err := NewSigner(testKeyHex, 137)
	require.NoError(t, err)

	order := OrderPayload{
		Salt:          "123456789",
		Maker:         testAddress,
		Signer:        testAddress,
		Taker:         "0x0000000000000000000000000000000000000000",
		TokenID:       "71321045679252212594626385532706912750332728571942532289631379312455583992563",
		MakerAmount:   "5560000",
		TakerAmount:   "10000000",
		Expiration:    "0",
		Nonce:         "0",
		FeeRateBps:    "0",
		Side:          0,
		SignatureType: 0,
	}

	sig1, err := s.SignOrder(order)
	require.NoError(t, err)
	sig2, err := s.SignOrder(order)
	require.NoError(t, err)
	assert.Equal(t, sig1, sig2)

	order.TakerAmount = "10000001"
	sig3, err := s.SignOrder(order)
	require.NoError(t, err)
	assert.NotEqual(t, sig1, sig3)
}

func TestSigner_SignOrder_InvalidNumeric(t *testing.T) {
	s, err := NewSigner(testKeyHex, 137)
	require.NoError(t, err)

	_, err = s.SignOrder(OrderPayload{Salt: "not-a-number"})
	assert.Error(t, err)
}

func TestHMACAuth_L2HeadersAt(t *testing.T) {
	auth := HMACAuth{
		Address:    testAddress,
		Key:        "api-key-uuid",
		Secret:     base64.URLEncoding.EncodeToString([]byte("shared-secret")),
		Passphrase: "pass",
	}

	h1, err := auth.L2HeadersAt("GET", "/balance-allowance", "", 1700000000)
	require.NoError(t, err)
	h2, err := auth.L2HeadersAt("GET", "/balance-allowance", "", 1700000000)
	require.NoError(t, err)

	assert.Equal(t, h1, h2, "same inputs must produce identical headers")
	assert.Equal(t, testAddress, h1["POLY_ADDRESS"])
	assert.Equal(t, "api-key-uuid", h1["POLY_API_KEY"])
	assert.Equal(t, "1700000000", h1["POLY_TIMESTAMP"])
	assert.Equal(t, "pass", h1["POLY_PASSPHRASE"])
	assert.NotEmpty(t, h1["POLY_SIGNATURE"])

	h3, err := auth.L2HeadersAt("POST", "/order", `{"x":1}`, 1700000000)
	require.NoError(t, err)
	assert.NotEqual(t, h1["POLY_SIGNATURE"], h3["POLY_SIGNATURE"])
}

func TestHMACAuth_BadSecret(t *testing.T) {
	auth := HMACAuth{Secret: "%%%not-base64%%%"}
	_, err := auth.L2Headers("GET", "/", "")
	assert.Error(t, err)
}
