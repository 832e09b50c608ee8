package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Asset is a snapshot of one position inside a portfolio. It is a value type:
// updates go through WithPosition and produce a new snapshot.
type Asset struct {
	Symbol       AssetSymbol
	CurrentPrice Money
	Holdings     AssetAmount
	CostBasis    Money
	RealizedPnL  Money
}

// NewAsset returns an empty position priced in currency.
func NewAsset(symbol AssetSymbol, currency string) (Asset, error) {
	zero, err := ZeroMoney(currency)
	if err != nil {
		return Asset{}, err
	}

	return Asset{
		Symbol:       symbol,
		CurrentPrice: zero,
		Holdings:     ZeroAmount(symbol),
		CostBasis:    zero,
		RealizedPnL:  zero,
	}, nil
}

// Validate checks that holdings are in the asset's symbol and all money
// fields share one currency.
func (a Asset) Validate() error {
	if a.Holdings.Asset() != a.Symbol {
		return fmt.Errorf("%w: holdings in %s for asset %s", ErrAssetMismatch, a.Holdings.Asset(), a.Symbol)
	}

	cur := a.CurrentPrice.Currency()
	if a.CostBasis.Currency() != cur || a.RealizedPnL.Currency() != cur {
		return fmt.Errorf("%w: asset %s mixes currencies", ErrCurrencyMismatch, a.Symbol)
	}

	return nil
}

// WithPosition returns a copy of a with every position field overwritten.
func (a Asset) WithPosition(holdings AssetAmount, costBasis, realized, price Money) (Asset, error) {
	next := Asset{
		Symbol:       a.Symbol,
		CurrentPrice: price,
		Holdings:     holdings,
		CostBasis:    costBasis,
		RealizedPnL:  realized,
	}

	if err := next.Validate(); err != nil {
		return Asset{}, err
	}

	return next, nil
}

func (a Asset) Currency() string { return a.CurrentPrice.Currency() }

// CurrentValue is holdings * current price.
func (a Asset) CurrentValue() Money {
	return a.Holdings.Times(a.CurrentPrice)
}

// UnrealizedPnL is current value - cost basis and may be negative.
func (a Asset) UnrealizedPnL() Money {
	return Money{amount: a.CurrentValue().amount.Sub(a.CostBasis.amount), currency: a.Currency()}
}

// TotalPnL is realized + unrealized.
func (a Asset) TotalPnL() Money {
	return Money{amount: a.RealizedPnL.amount.Add(a.UnrealizedPnL().amount), currency: a.Currency()}
}

// ReturnPercentage is total P&L over cost basis in percent, 0 without cost basis.
func (a Asset) ReturnPercentage(precision int32) decimal.Decimal {
	return percentOf(a.TotalPnL().amount, a.CostBasis.amount, precision)
}

func percentOf(part, whole decimal.Decimal, precision int32) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.DivRound(whole, precision).Mul(hundred)
}
