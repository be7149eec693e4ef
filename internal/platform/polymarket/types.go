package polymarket

import (
	"encoding/json"
	"strconv"
)

// flexFloat decodes Gamma API numeric fields that arrive as JSON numbers,
// quoted strings, or null.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*f = 0
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		if str == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return err
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// stringArray decodes fields the Gamma API serves either as a JSON array or
// as a string containing a JSON array, e.g. clobTokenIds and outcomes.
type stringArray []string

func (a *stringArray) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return err
		}
		if inner == "" {
			*a = nil
			return nil
		}
		data = []byte(inner)
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*a = out
	return nil
}

// APISport is a row of the Gamma sports metadata listing.
type APISport struct {
	Sport  string      `json:"sport"`
	Series json.Number `json:"series"`
}

// APIEvent is a Gamma event with its nested markets.
type APIEvent struct {
	ID      string      `json:"id"`
	Slug    string      `json:"slug"`
	Title   string      `json:"title"`
	Closed  bool        `json:"closed"`
	Markets []APIMarket `json:"markets"`
}

// APIMarket is a market record under a Gamma event.
type APIMarket struct {
	ID           string      `json:"id"`
	Question     string      `json:"question"`
	Slug         string      `json:"slug"`
	Closed       bool        `json:"closed"`
	BestBid      *flexFloat  `json:"bestBid"`
	BestAsk      *flexFloat  `json:"bestAsk"`
	ClobTokenIDs stringArray `json:"clobTokenIds"`
	Outcomes     stringArray `json:"outcomes"`
	VolumeNum    flexFloat   `json:"volumeNum"`
	Volume       flexFloat   `json:"volume"`
	Volume24hr   flexFloat   `json:"volume24hr"`
}

// BookLevel is one price level of a CLOB orderbook side.
type BookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// OrderBook is the CLOB orderbook summary for a single token.
type OrderBook struct {
	Bids []BookLevel `json:"bids"`
	Asks []BookLevel `json:"asks"`
}

// apiCreds is the response of the derive-api-key endpoint.
type apiCreds struct {
	APIKey     string `json:"apiKey"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}

// wireOrder is the signed order as posted to the CLOB. Side travels as
// "BUY"/"SELL" on the wire while the signature covers its uint8 encoding.
type wireOrder struct {
	Salt          string `json:"salt"`
	Maker         string `json:"maker"`
	Signer        string `json:"signer"`
	Taker         string `json:"taker"`
	TokenID       string `json:"tokenId"`
	MakerAmount   string `json:"makerAmount"`
	TakerAmount   string `json:"takerAmount"`
	Expiration    string `json:"expiration"`
	Nonce         string `json:"nonce"`
	FeeRateBps    string `json:"feeRateBps"`
	Side          string `json:"side"`
	SignatureType int    `json:"signatureType"`
	Signature     string `json:"signature"`
}

type postOrderRequest struct {
	Order     wireOrder `json:"order"`
	Owner     string    `json:"owner"`
	OrderType string    `json:"orderType"`
}

type postOrderResponse struct {
	Success  bool   `json:"success"`
	ErrorMsg string `json:"errorMsg"`
	OrderID  string `json:"orderID"`
	Status   string `json:"status"`
}

// APITrade is a row of the authenticated trade history.
type APITrade struct {
	ID        string `json:"id"`
	AssetID   string `json:"asset_id"`
	Side      string `json:"side"`
	Size      string `json:"size"`
	Price     string `json:"price"`
	MatchTime string `json:"match_time"` // unix seconds as string
}
