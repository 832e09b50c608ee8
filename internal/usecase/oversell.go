package usecase

import (
	"github.com/shopspring/decimal"

	"github.com/iho/goportfolio/internal/domain"
)

// OversellAction is the response to a sell that exceeds the queued lots.
type OversellAction int

const (
	// OversellIgnore treats the shortfall as rounding noise.
	OversellIgnore OversellAction = iota
	// OversellWarn logs the shortfall without touching the lot queue.
	OversellWarn
	// OversellSyntheticLot queues a lot for the shortfall priced at the sell
	// price, standing in for an inbound transfer missing from the history.
	OversellSyntheticLot
)

var (
	// OversellNoiseThreshold is the shortfall below which an oversell is ignored.
	OversellNoiseThreshold = decimal.RequireFromString("0.01")
	// OversellSyntheticThreshold is the shortfall from which a synthetic lot is created.
	OversellSyntheticThreshold = decimal.RequireFromString("0.1")
)

func (a OversellAction) String() string {
	switch a {
	case OversellIgnore:
		return "ignore"
	case OversellWarn:
		return "warn"
	case OversellSyntheticLot:
		return "synthetic_lot"
	default:
		return "unknown"
	}
}

// MarshalText encodes the action by name.
func (a OversellAction) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// ClassifyOversell picks the tolerance band for a shortfall in asset units.
func ClassifyOversell(shortfall decimal.Decimal) OversellAction {
	switch {
	case shortfall.LessThan(OversellNoiseThreshold):
		return OversellIgnore
	case shortfall.LessThan(OversellSyntheticThreshold):
		return OversellWarn
	default:
		return OversellSyntheticLot
	}
}

// OversellEvent records one sell that could not be fully covered by lots.
type OversellEvent struct {
	TradeID   string           `json:"trade_id"`
	Timestamp domain.Timestamp `json:"timestamp"`
	Shortfall decimal.Decimal  `json:"shortfall"`
	Action    OversellAction   `json:"action"`
}
