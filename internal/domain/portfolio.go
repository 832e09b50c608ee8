package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const MaxPortfolioNameLength = 255

// Portfolio is an ordered set of assets with unique symbols, all valued in
// the portfolio currency.
//
// A *Portfolio is never modified after construction: AddAsset and WithAsset
// return a new snapshot, so readers holding an older pointer keep a
// consistent view while a recomputation builds the next one.
type Portfolio struct {
	ID        string
	Name      string
	Currency  string
	CreatedAt time.Time
	UpdatedAt time.Time

	assets []Asset
	index  map[AssetSymbol]int
}

// NewPortfolio creates an empty portfolio.
func NewPortfolio(id, name, currency string) (*Portfolio, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}

	if len(name) > MaxPortfolioNameLength {
		return nil, fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, MaxPortfolioNameLength)
	}

	zero, err := ZeroMoney(currency)
	if err != nil {
		return nil, err
	}

	return &Portfolio{
		ID:       id,
		Name:     name,
		Currency: zero.Currency(),
		index:    make(map[AssetSymbol]int),
	}, nil
}

// AddAsset returns a snapshot with asset appended. It fails if the symbol is
// already present.
func (p *Portfolio) AddAsset(asset Asset) (*Portfolio, error) {
	if _, ok := p.index[asset.Symbol]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateAsset, asset.Symbol)
	}

	if err := p.checkAsset(asset); err != nil {
		return nil, err
	}

	next := p.clone()
	next.index[asset.Symbol] = len(next.assets)
	next.assets = append(next.assets, asset)

	return next, nil
}

// WithAsset returns a snapshot where asset replaces the position with the
// same symbol, keeping its place, or is appended when new.
func (p *Portfolio) WithAsset(asset Asset) (*Portfolio, error) {
	i, ok := p.index[asset.Symbol]
	if !ok {
		return p.AddAsset(asset)
	}

	if err := p.checkAsset(asset); err != nil {
		return nil, err
	}

	next := p.clone()
	next.assets[i] = asset

	return next, nil
}

// Touch returns a snapshot stamped with at.
func (p *Portfolio) Touch(at time.Time) *Portfolio {
	next := p.clone()
	next.UpdatedAt = at
	return next
}

// Asset looks up a position by symbol.
func (p *Portfolio) Asset(symbol AssetSymbol) (Asset, bool) {
	i, ok := p.index[symbol]
	if !ok {
		return Asset{}, false
	}
	return p.assets[i], true
}

// Assets returns the positions in insertion order.
func (p *Portfolio) Assets() []Asset {
	out := make([]Asset, len(p.assets))
	copy(out, p.assets)
	return out
}

func (p *Portfolio) Len() int { return len(p.assets) }

// TotalValue sums current value over assets with positive holdings.
func (p *Portfolio) TotalValue() Money {
	total := decimal.Zero
	for _, a := range p.assets {
		if a.Holdings.IsPositive() {
			total = total.Add(a.CurrentValue().amount)
		}
	}
	return p.money(total)
}

// TotalCostBasis sums cost basis over assets with positive holdings.
func (p *Portfolio) TotalCostBasis() Money {
	total := decimal.Zero
	for _, a := range p.assets {
		if a.Holdings.IsPositive() {
			total = total.Add(a.CostBasis.amount)
		}
	}
	return p.money(total)
}

// TotalRealizedPnL sums realized P&L over every asset, including positions
// that have been fully exited.
func (p *Portfolio) TotalRealizedPnL() Money {
	total := decimal.Zero
	for _, a := range p.assets {
		total = total.Add(a.RealizedPnL.amount)
	}
	return p.money(total)
}

// TotalUnrealizedPnL is TotalValue - TotalCostBasis.
func (p *Portfolio) TotalUnrealizedPnL() Money {
	return p.money(p.TotalValue().amount.Sub(p.TotalCostBasis().amount))
}

// TotalPnL is realized + unrealized.
func (p *Portfolio) TotalPnL() Money {
	return p.money(p.TotalRealizedPnL().amount.Add(p.TotalUnrealizedPnL().amount))
}

// ReturnPercentage is total P&L over total cost basis in percent.
func (p *Portfolio) ReturnPercentage(precision int32) decimal.Decimal {
	return percentOf(p.TotalPnL().amount, p.TotalCostBasis().amount, precision)
}

// HeldAssetCount counts assets with positive holdings.
func (p *Portfolio) HeldAssetCount() int {
	n := 0
	for _, a := range p.assets {
		if a.Holdings.IsPositive() {
			n++
		}
	}
	return n
}

func (p *Portfolio) checkAsset(asset Asset) error {
	if err := asset.Validate(); err != nil {
		return err
	}

	if asset.Currency() != p.Currency {
		return fmt.Errorf("%w: asset %s priced in %s, portfolio in %s", ErrCurrencyMismatch, asset.Symbol, asset.Currency(), p.Currency)
	}

	return nil
}

func (p *Portfolio) money(amount decimal.Decimal) Money {
	return Money{amount: amount, currency: p.Currency}
}

func (p *Portfolio) clone() *Portfolio {
	next := *p
	next.assets = make([]Asset, len(p.assets), len(p.assets)+1)
	copy(next.assets, p.assets)
	next.index = make(map[AssetSymbol]int, len(p.index)+1)
	for k, v := range p.index {
		next.index[k] = v
	}
	return &next
}
