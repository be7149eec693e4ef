package domain

import (
	"context"
	"time"
)

// SnapshotSource produces the current set of canonical game markets for one
// venue. A partial or empty snapshot is a valid result; callers treat it as
// "nothing pairable right now", never as an error.
type SnapshotSource interface {
	// Snapshot fetches and resolves the venue's current sports markets.
	Snapshot(ctx context.Context) ([]CanonicalMarket, error)
	Venue() Venue
}

// OrderClient places and unwinds orders on one venue. Implementations must be
// safe for sequential reuse; the coordinator never calls them concurrently.
type OrderClient interface {
	// PlaceImmediate buys count shares of side on the market, priced to fill
	// immediately or not at all. A zero-fill result is not an error.
	PlaceImmediate(ctx context.Context, m *CanonicalMarket, side Side, count int) (OrderResult, error)

	// CloseImmediate sells count shares of side, crossing the spread so the
	// close fills against resting bids.
	CloseImmediate(ctx context.Context, m *CanonicalMarket, side Side, count int) (OrderResult, error)

	// Balance returns available trading funds in dollars.
	Balance(ctx context.Context) (float64, error)

	// RecentFills returns fills since the given time, newest first.
	RecentFills(ctx context.Context, since time.Time) ([]Fill, error)

	Venue() Venue
}

// TradeJournal persists terminal trade records. Append failures are reported
// but do not abort execution; Replay failures must stop the scanner.
type TradeJournal interface {
	Append(ctx context.Context, rec TradeRecord) error
	// Replay streams every stored record in append order.
	Replay(ctx context.Context, fn func(TradeRecord) error) error
	// Recent returns up to n most recent records, newest first.
	Recent(ctx context.Context, n int) ([]TradeRecord, error)
	Close() error
}

// CooldownStore tracks recently traded opportunity keys so the same candidate
// is not re-entered within the cooldown window. Keys are marked only after a
// successful execution.
type CooldownStore interface {
	// InCooldown reports whether key is inside its cooldown window.
	InCooldown(ctx context.Context, key string) (bool, error)
	// Mark records key as executed now, starting its window.
	Mark(ctx context.Context, key string, ttl time.Duration) error
}

// Notifier delivers operator-facing alerts. Implementations must not block
// the scan loop beyond their own timeouts.
type Notifier interface {
	Alert(ctx context.Context, title, message string)
}
