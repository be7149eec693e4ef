package executor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/crossarb/internal/domain"
)

type fakeClient struct {
	venue   domain.Venue
	balance float64

	placeErr    error
	placeFilled int
	placeCalls  int

	closeErr   error
	closeCalls int

	fills []domain.Fill
}

func (f *fakeClient) PlaceImmediate(_ context.Context, _ *domain.CanonicalMarket, _ domain.Side, count int) (domain.OrderResult, error) {
	f.placeCalls++
	if f.placeErr != nil {
		return domain.OrderResult{}, f.placeErr
	}
	filled := f.placeFilled
	if filled < 0 {
		filled = count
	}
	return domain.OrderResult{OrderID: "ord", FilledCount: filled}, nil
}

func (f *fakeClient) CloseImmediate(_ context.Context, _ *domain.CanonicalMarket, _ domain.Side, count int) (domain.OrderResult, error) {
	f.closeCalls++
	if f.closeErr != nil {
		return domain.OrderResult{}, f.closeErr
	}
	return domain.OrderResult{OrderID: "close", FilledCount: count}, nil
}

func (f *fakeClient) Balance(context.Context) (float64, error) { return f.balance, nil }

func (f *fakeClient) RecentFills(context.Context, time.Time) ([]domain.Fill, error) {
	return f.fills, nil
}

func (f *fakeClient) Venue() domain.Venue { return f.venue }

type captureJournal struct {
	records   []domain.TradeRecord
	appendErr error
}

func (j *captureJournal) Append(_ context.Context, rec domain.TradeRecord) error {
	j.records = append(j.records, rec)
	return j.appendErr
}

func (j *captureJournal) Replay(context.Context, func(domain.TradeRecord) error) error { return nil }
func (j *captureJournal) Recent(context.Context, int) ([]domain.TradeRecord, error)    { return nil, nil }
func (j *captureJournal) Close() error                                                 { return nil }

type captureNotifier struct{ alerts []string }

func (n *captureNotifier) Alert(_ context.Context, title, _ string) {
	n.alerts = append(n.alerts, title)
}

func testConfig() Config {
	return Config{
		BalanceFraction:         0.30,
		MaxPositionUSD:          8.0,
		KalshiLiquidityFraction: 0.10,
		PolyLiquidityFraction:   0.01,
		FillMatchTolerance:      0.50,
	}
}

func testOpportunity() *domain.Opportunity {
	teams, _ := domain.NewTeamPair("buf", "den")
	game := domain.GameKey{Sport: "nfl", Teams: teams}
	return &domain.Opportunity{
		Game: game,
		Type: domain.MarketWinner,
		Kalshi: domain.Leg{
			Venue: domain.VenueKalshi,
			Market: &domain.CanonicalMarket{
				Venue: domain.VenueKalshi, Game: game, Handle: "KXT",
				OpenInterest: 1000, Volume24h: 500,
			},
			Side: domain.SideNo,
			Cost: 0.30,
		},
		Poly: domain.Leg{
			Venue: domain.VenuePolymarket,
			Market: &domain.CanonicalMarket{
				Venue: domain.VenuePolymarket, Game: game, Handle: "slug",
				TokenIDs: [2]string{"a", "b"}, Volume24h: 5000,
			},
			Side: domain.SideNo,
			Cost: 0.25,
		},
		UnitCost:    0.556,
		UnitProfit:  0.444,
		ROI:         0.444 / 0.556,
		Description: "winner: kalshi buf / poly den",
	}
}

func newTestCoordinator(ks, pm *fakeClient, j *captureJournal, n domain.Notifier) *Coordinator {
	return NewCoordinator(testConfig(), ks, pm, j, n,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestExecute_BothLegsFill(t *testing.T) {
	ks := &fakeClient{venue: domain.VenueKalshi, balance: 100, placeFilled: -1}
	pm := &fakeClient{venue: domain.VenuePolymarket, balance: 100, placeFilled: -1}
	j := &captureJournal{}

	res, err := newTestCoordinator(ks, pm, j, nil).Execute(context.Background(), testOpportunity(), 0)
	require.NoError(t, err)
	assert.Equal(t, StateBothFilled, res.State)
	assert.True(t, res.Executed)

	require.Len(t, j.records, 1)
	rec := j.records[0]
	assert.Equal(t, domain.OutcomeSuccess, rec.Outcome)
	assert.True(t, rec.BothLegsFilled)
	assert.Equal(t, "nfl:buf-den", rec.Game)
	// Hard bound: $8 / 0.556 = 14.38 -> 14 shares.
	assert.Equal(t, 14, rec.PositionSize)
	assert.InDelta(t, 0.556*14, rec.TradeCost, 1e-9)
	assert.InDelta(t, 0.444*14, rec.LockedProfit, 1e-9)

	assert.Equal(t, 1, pm.placeCalls, "polymarket placed first")
	assert.Equal(t, 1, ks.placeCalls)
	assert.Zero(t, pm.closeCalls)
}

func TestExecute_PolymarketOrderPlacedFirst(t *testing.T) {
	// A Polymarket rejection must leave Kalshi untouched.
	ks := &fakeClient{venue: domain.VenueKalshi, balance: 100, placeFilled: -1}
	pm := &fakeClient{venue: domain.VenuePolymarket, balance: 100, placeErr: errors.New("FOK killed")}
	j := &captureJournal{}

	res, err := newTestCoordinator(ks, pm, j, nil).Execute(context.Background(), testOpportunity(), 0)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, res.State)
	assert.False(t, res.Executed)
	assert.Zero(t, ks.placeCalls)
	assert.Zero(t, pm.closeCalls)

	require.Len(t, j.records, 1)
	assert.Equal(t, domain.OutcomeFailure, j.records[0].Outcome)
	assert.True(t, j.records[0].BothLegsFilled)
	assert.Zero(t, j.records[0].TradeCost, "no capital deployed on a clean rejection")
}

func TestExecute_CompensationOnKalshiFailure(t *testing.T) {
	ks := &fakeClient{venue: domain.VenueKalshi, balance: 100, placeErr: domain.ErrInsufficientBalance}
	pm := &fakeClient{venue: domain.VenuePolymarket, balance: 100, placeFilled: -1}
	j := &captureJournal{}

	res, err := newTestCoordinator(ks, pm, j, nil).Execute(context.Background(), testOpportunity(), 0)
	require.NoError(t, err)
	assert.Equal(t, StateCompensatedSafe, res.State)
	assert.False(t, res.Executed)
	assert.Equal(t, 1, pm.closeCalls, "exactly one compensating close")

	require.Len(t, j.records, 1)
	rec := j.records[0]
	assert.Equal(t, domain.OutcomeFailure, rec.Outcome)
	assert.True(t, rec.BothLegsFilled)
	assert.Zero(t, rec.LockedProfit)
}

func TestExecute_NakedPositionWhenCompensationFails(t *testing.T) {
	ks := &fakeClient{venue: domain.VenueKalshi, balance: 100, placeErr: errors.New("rejected")}
	pm := &fakeClient{
		venue: domain.VenuePolymarket, balance: 100,
		placeFilled: -1, closeErr: errors.New("no bids"),
	}
	j := &captureJournal{}
	n := &captureNotifier{}

	res, err := newTestCoordinator(ks, pm, j, n).Execute(context.Background(), testOpportunity(), 0)
	require.NoError(t, err)
	assert.Equal(t, StateNakedPosition, res.State)
	assert.Equal(t, 1, pm.closeCalls, "compensation attempted exactly once")

	require.Len(t, j.records, 1)
	rec := j.records[0]
	assert.Equal(t, domain.OutcomeNaked, rec.Outcome)
	assert.False(t, rec.BothLegsFilled)
	require.Len(t, n.alerts, 1)
	assert.Contains(t, n.alerts[0], "NAKED")
}

func TestExecute_RejectsBelowOneShare(t *testing.T) {
	ks := &fakeClient{venue: domain.VenueKalshi, balance: 1, placeFilled: -1}
	pm := &fakeClient{venue: domain.VenuePolymarket, balance: 1, placeFilled: -1}
	j := &captureJournal{}

	// 0.30 * $1 / 0.556 = 0.54 shares, below the integer minimum.
	_, err := newTestCoordinator(ks, pm, j, nil).Execute(context.Background(), testOpportunity(), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPositionTooSmall))
	assert.Zero(t, pm.placeCalls)
	assert.Empty(t, j.records)
}

func TestExecute_RejectsInvalidEconomics(t *testing.T) {
	ks := &fakeClient{venue: domain.VenueKalshi, balance: 100}
	pm := &fakeClient{venue: domain.VenuePolymarket, balance: 100}

	opp := testOpportunity()
	opp.UnitCost = 1.05
	opp.UnitProfit = -0.05
	_, err := newTestCoordinator(ks, pm, &captureJournal{}, nil).Execute(context.Background(), opp, 0)
	require.Error(t, err)
	assert.Zero(t, pm.placeCalls)
}

func TestExecute_AdvisoryCapOnlyShrinks(t *testing.T) {
	ks := &fakeClient{venue: domain.VenueKalshi, balance: 1000, placeFilled: -1}
	pm := &fakeClient{venue: domain.VenuePolymarket, balance: 1000, placeFilled: -1}
	j := &captureJournal{}

	res, err := newTestCoordinator(ks, pm, j, nil).Execute(context.Background(), testOpportunity(), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Record.PositionSize)

	j2 := &captureJournal{}
	res, err = newTestCoordinator(ks, pm, j2, nil).Execute(context.Background(), testOpportunity(), 1000)
	require.NoError(t, err)
	// $8 cap / 0.556 still binds at 14.
	assert.Equal(t, 14, res.Record.PositionSize)
}

func TestExecute_KalshiLiquidityCapBinds(t *testing.T) {
	ks := &fakeClient{venue: domain.VenueKalshi, balance: 1000, placeFilled: -1}
	pm := &fakeClient{venue: domain.VenuePolymarket, balance: 1000, placeFilled: -1}
	j := &captureJournal{}

	opp := testOpportunity()
	opp.Kalshi.Market.OpenInterest = 50
	opp.Kalshi.Market.Volume24h = 40

	res, err := newTestCoordinator(ks, pm, j, nil).Execute(context.Background(), opp, 0)
	require.NoError(t, err)
	// 10% of max(50, 40) = 5 shares.
	assert.Equal(t, 5, res.Record.PositionSize)
}

func TestExecute_JournalAppendFailureDoesNotAbort(t *testing.T) {
	ks := &fakeClient{venue: domain.VenueKalshi, balance: 100, placeFilled: -1}
	pm := &fakeClient{venue: domain.VenuePolymarket, balance: 100, placeFilled: -1}
	j := &captureJournal{appendErr: errors.New("disk full")}

	res, err := newTestCoordinator(ks, pm, j, nil).Execute(context.Background(), testOpportunity(), 0)
	require.NoError(t, err)
	assert.Equal(t, StateBothFilled, res.State)
	assert.True(t, res.Executed)
}
