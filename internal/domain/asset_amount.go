package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AssetAmount is a non-negative quantity of a single asset.
type AssetAmount struct {
	amount decimal.Decimal
	asset  AssetSymbol
}

// NewAssetAmount fails on negative quantities.
func NewAssetAmount(amount decimal.Decimal, asset AssetSymbol) (AssetAmount, error) {
	if amount.IsNegative() {
		return AssetAmount{}, fmt.Errorf("%w: %s %s", ErrNegativeAmount, amount, asset)
	}
	return AssetAmount{amount: amount, asset: asset}, nil
}

// ZeroAmount returns an empty holding of asset.
func ZeroAmount(asset AssetSymbol) AssetAmount {
	return AssetAmount{amount: decimal.Zero, asset: asset}
}

func (a AssetAmount) Amount() decimal.Decimal { return a.amount }
func (a AssetAmount) Asset() AssetSymbol      { return a.asset }
func (a AssetAmount) IsZero() bool            { return a.amount.IsZero() }
func (a AssetAmount) IsPositive() bool        { return a.amount.IsPositive() }

func (a AssetAmount) Equal(b AssetAmount) bool {
	return a.asset == b.asset && a.amount.Equal(b.amount)
}

// Add returns a + b.
func (a AssetAmount) Add(b AssetAmount) (AssetAmount, error) {
	if err := a.sameAsset(b); err != nil {
		return AssetAmount{}, err
	}
	return AssetAmount{amount: a.amount.Add(b.amount), asset: a.asset}, nil
}

// Sub returns a - b and fails when the result would be negative.
func (a AssetAmount) Sub(b AssetAmount) (AssetAmount, error) {
	if err := a.sameAsset(b); err != nil {
		return AssetAmount{}, err
	}

	result := a.amount.Sub(b.amount)
	if result.IsNegative() {
		return AssetAmount{}, fmt.Errorf("%w: %s - %s", ErrAmountUnderflow, a, b)
	}

	return AssetAmount{amount: result, asset: a.asset}, nil
}

// GreaterThan compares quantities of the same asset.
func (a AssetAmount) GreaterThan(b AssetAmount) (bool, error) {
	if err := a.sameAsset(b); err != nil {
		return false, err
	}
	return a.amount.GreaterThan(b.amount), nil
}

// Times prices the amount: quantity x unit price.
func (a AssetAmount) Times(price Money) Money {
	return price.Mul(a.amount)
}

func (a AssetAmount) String() string {
	return a.amount.String() + " " + string(a.asset)
}

func (a AssetAmount) sameAsset(b AssetAmount) error {
	if a.asset != b.asset {
		return fmt.Errorf("%w: %s vs %s", ErrAssetMismatch, a.asset, b.asset)
	}
	return nil
}
