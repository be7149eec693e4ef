package kalshi

// Market is a market record as returned by the Kalshi REST API. Prices are
// in cents.
type Market struct {
	Ticker       string `json:"ticker"`
	EventTicker  string `json:"event_ticker"`
	Title        string `json:"title"`
	Status       string `json:"status"` // "open", "closed", "settled"
	YesBid       int    `json:"yes_bid"`
	YesAsk       int    `json:"yes_ask"`
	NoBid        int    `json:"no_bid"`
	NoAsk        int    `json:"no_ask"`
	Volume       int64  `json:"volume"`
	Volume24H    int64  `json:"volume_24h"`
	OpenInterest int64  `json:"open_interest"`
}

// Order is an order placement request. Limit prices are in cents, 1-99.
type Order struct {
	Ticker   string `json:"ticker"`
	Action   string `json:"action"` // "buy" or "sell"
	Side     string `json:"side"`   // "yes" or "no"
	Type     string `json:"type"`   // "market" or "limit"
	Count    int    `json:"count"`
	YesPrice *int   `json:"yes_price,omitempty"`
	NoPrice  *int   `json:"no_price,omitempty"`
}

// OrderStatus is the order state reported after placement.
type OrderStatus struct {
	OrderID        string `json:"order_id"`
	Ticker         string `json:"ticker"`
	Status         string `json:"status"` // "resting", "canceled", "executed", "pending"
	Action         string `json:"action"`
	Side           string `json:"side"`
	RemainingCount int    `json:"remaining_count"`
	TakerFillCount int    `json:"taker_fill_count"`
	TakerFillCost  int    `json:"taker_fill_cost"` // cents, summed over fills
	MakerFillCount int    `json:"maker_fill_count"`
}

// Fill is a single execution against a resting or crossing order.
type Fill struct {
	TradeID     string `json:"trade_id"`
	OrderID     string `json:"order_id"`
	Ticker      string `json:"ticker"`
	Side        string `json:"side"`
	Action      string `json:"action"`
	Count       int    `json:"count"`
	YesPrice    int    `json:"yes_price"`
	NoPrice     int    `json:"no_price"`
	CreatedTime string `json:"created_time"` // RFC 3339
}

type marketsResponse struct {
	Markets []Market `json:"markets"`
	Cursor  string   `json:"cursor"`
}

type orderResponse struct {
	Order OrderStatus `json:"order"`
}

type fillsResponse struct {
	Fills  []Fill `json:"fills"`
	Cursor string `json:"cursor"`
}

type balanceResponse struct {
	Balance int64 `json:"balance"` // cents
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
