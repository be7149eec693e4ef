package domain

import "errors"

// Sentinel errors shared across packages. Wrap with fmt.Errorf("...: %w", ...)
// and test with errors.Is.
var (
	// ErrNotFound indicates a venue resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates rejected venue credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates the venue throttled the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrInsufficientBalance indicates a venue balance cannot cover an order.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrOrderRejected indicates the venue rejected or killed an order.
	ErrOrderRejected = errors.New("order rejected")

	// ErrPositionTooSmall indicates the hard size bound fell below one share.
	ErrPositionTooSmall = errors.New("position below minimum size")

	// ErrTradingHalted indicates the risk governor has stopped all trading.
	ErrTradingHalted = errors.New("trading halted by risk governor")

	// ErrJournalUnreadable indicates the trade journal could not be replayed.
	// Scans must not start in this state.
	ErrJournalUnreadable = errors.New("trade journal unreadable")
)
