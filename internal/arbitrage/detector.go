// Package arbitrage pairs canonical markets across venues and enumerates
// priced complementary-side candidates.
package arbitrage

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/alanyoungcy/crossarb/internal/domain"
	"github.com/alanyoungcy/crossarb/internal/identity"
)

// Config holds the detector thresholds.
type Config struct {
	// KalshiTakerFee is applied multiplicatively to the Kalshi leg cost.
	KalshiTakerFee float64
	// MinProfitRatio is the minimum unit profit as a fraction of unit cost.
	MinProfitRatio float64
}

// Detector finds cross-venue arbitrage candidates in a pair of snapshots.
type Detector struct {
	cfg    Config
	logger *slog.Logger
}

// NewDetector creates a Detector with the given thresholds.
func NewDetector(cfg Config, logger *slog.Logger) *Detector {
	return &Detector{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "detector")),
	}
}

// Detect pairs the two snapshots on (sport, team pair), groups by market type,
// and prices both complementary combinations of every matched pair. Only
// candidates meeting the profit threshold are returned, sorted by descending
// ROI. Detect is pure: it never mutates its inputs.
func (d *Detector) Detect(kalshi, poly []domain.CanonicalMarket) []domain.Opportunity {
	polyByGame := make(map[domain.GameKey][]*domain.CanonicalMarket)
	for i := range poly {
		polyByGame[poly[i].Game] = append(polyByGame[poly[i].Game], &poly[i])
	}

	var out []domain.Opportunity
	for i := range kalshi {
		km := &kalshi[i]
		for _, pm := range polyByGame[km.Game] {
			if pm.Type != km.Type {
				continue
			}
			out = append(out, d.pair(km, pm)...)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].ROI > out[j].ROI })
	if len(out) > 0 {
		d.logger.Info("candidates found", slog.Int("count", len(out)))
	}
	return out
}

// pair prices one (kalshi, polymarket) market pair of the same game and type.
func (d *Detector) pair(km, pm *domain.CanonicalMarket) []domain.Opportunity {
	switch km.Type {
	case domain.MarketSpread:
		return d.pairSpread(km, pm)
	case domain.MarketWinner:
		return d.pairWinner(km, pm)
	case domain.MarketTotal:
		return d.pairTotal(km, pm)
	default:
		return nil
	}
}

// pairTotal matches totals on the exact line; sides are true over/under so the
// two combinations are symmetric yes/no crosses.
func (d *Detector) pairTotal(km, pm *domain.CanonicalMarket) []domain.Opportunity {
	if km.Line == nil || pm.Line == nil || *km.Line != *pm.Line {
		return nil
	}
	var out []domain.Opportunity
	if opp, ok := d.price(km, pm, domain.SideYes, domain.SideNo, "total: kalshi over / poly under"); ok {
		out = append(out, opp)
	}
	if opp, ok := d.price(km, pm, domain.SideNo, domain.SideYes, "total: kalshi under / poly over"); ok {
		out = append(out, opp)
	}
	return out
}

// pairSpread requires both venues to quote the identical (team, line). The
// Polymarket side is chosen so the two legs back opposite teams.
func (d *Detector) pairSpread(km, pm *domain.CanonicalMarket) []domain.Opportunity {
	if km.Spread == nil || pm.Spread == nil || *km.Spread != *pm.Spread {
		return nil
	}
	ksTeam := km.Spread.Team
	opponent := km.Game.Teams.Other(ksTeam)
	if opponent == "" {
		return nil
	}

	// Same quoted team on both venues: kalshi yes (team covers) hedges with
	// poly no (opponent covers), and vice versa.
	sameTeam := pm.Spread.Team == ksTeam

	var out []domain.Opportunity
	pmSide := domain.SideYes
	if sameTeam {
		pmSide = domain.SideNo
	}
	desc := fmt.Sprintf("spread: kalshi %s %+.1f / poly %s", ksTeam, km.Spread.Line, opponent)
	if opp, ok := d.price(km, pm, domain.SideYes, pmSide, desc); ok {
		out = append(out, opp)
	}

	pmSide = domain.SideNo
	if sameTeam {
		pmSide = domain.SideYes
	}
	desc = fmt.Sprintf("spread: kalshi %s %+.1f / poly %s", opponent, km.Spread.Line, ksTeam)
	if opp, ok := d.price(km, pm, domain.SideNo, pmSide, desc); ok {
		out = append(out, opp)
	}
	return out
}

// pairWinner needs team attribution on both venues: the Kalshi title names the
// team its yes side backs, and the Polymarket outcomes array maps each team to
// a token index. Pairs where either attribution fails are discarded.
func (d *Detector) pairWinner(km, pm *domain.CanonicalMarket) []domain.Opportunity {
	teams := km.Game.Teams
	ksTeam := identity.AttributeTeam(km.Title, teams)
	if ksTeam == "" {
		return nil
	}
	opponent := teams.Other(ksTeam)

	ksIdx, oppIdx := -1, -1
	for idx, outcome := range pm.Outcomes {
		label := strings.ToLower(outcome)
		if ksIdx < 0 && identity.TeamMentioned(label, ksTeam) {
			ksIdx = idx
		}
		if oppIdx < 0 && identity.TeamMentioned(label, opponent) {
			oppIdx = idx
		}
	}
	if ksIdx < 0 || oppIdx < 0 || ksIdx == oppIdx {
		return nil
	}

	sideFor := func(idx int) domain.Side {
		if idx == 0 {
			return domain.SideYes
		}
		return domain.SideNo
	}

	var out []domain.Opportunity
	desc := fmt.Sprintf("winner: kalshi %s / poly %s", ksTeam, opponent)
	if opp, ok := d.price(km, pm, domain.SideYes, sideFor(oppIdx), desc); ok {
		out = append(out, opp)
	}
	desc = fmt.Sprintf("winner: kalshi %s / poly %s", opponent, ksTeam)
	if opp, ok := d.price(km, pm, domain.SideNo, sideFor(ksIdx), desc); ok {
		out = append(out, opp)
	}
	return out
}

// price computes the unit economics for one side combination and applies the
// validity gate: 0 < cost <= 1 and profit >= minProfitRatio * cost.
func (d *Detector) price(km, pm *domain.CanonicalMarket, ksSide, pmSide domain.Side, desc string) (domain.Opportunity, bool) {
	ksCost := km.CostFor(ksSide)
	pmCost := pm.CostFor(pmSide)

	unitCost := ksCost*(1+d.cfg.KalshiTakerFee) + pmCost
	unitProfit := 1.0 - unitCost

	if unitCost <= 0 || unitCost > 1 {
		return domain.Opportunity{}, false
	}
	if unitProfit < d.cfg.MinProfitRatio*unitCost {
		return domain.Opportunity{}, false
	}

	return domain.Opportunity{
		Game: km.Game,
		Type: km.Type,
		Kalshi: domain.Leg{
			Venue:  domain.VenueKalshi,
			Market: km,
			Side:   ksSide,
			Cost:   ksCost,
		},
		Poly: domain.Leg{
			Venue:  domain.VenuePolymarket,
			Market: pm,
			Side:   pmSide,
			Cost:   pmCost,
		},
		UnitCost:    unitCost,
		UnitProfit:  unitProfit,
		ROI:         unitProfit / unitCost,
		Description: desc,
	}, true
}
