package domain

import (
	"fmt"
	"strings"
)

type TradeType string

const (
	TradeTypeBuy  TradeType = "BUY"
	TradeTypeSell TradeType = "SELL"
)

// ParseTradeType accepts buy/sell in any case.
func ParseTradeType(s string) (TradeType, error) {
	switch TradeType(strings.ToUpper(strings.TrimSpace(s))) {
	case TradeTypeBuy:
		return TradeTypeBuy, nil
	case TradeTypeSell:
		return TradeTypeSell, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTradeType, s)
	}
}

// Trade is an executed buy or sell of one asset. Price is per unit; Fee is in
// the quote currency and may be negative (maker rebates).
type Trade struct {
	ID        string
	Asset     AssetSymbol
	Type      TradeType
	Amount    AssetAmount
	Price     Money
	Fee       Money
	Timestamp Timestamp
}

// NewTrade builds and validates a trade.
func NewTrade(id string, asset AssetSymbol, typ TradeType, amount AssetAmount, price, fee Money, ts Timestamp) (Trade, error) {
	t := Trade{
		ID:        id,
		Asset:     asset,
		Type:      typ,
		Amount:    amount,
		Price:     price,
		Fee:       fee,
		Timestamp: ts,
	}

	if err := t.Validate(); err != nil {
		return Trade{}, err
	}

	return t, nil
}

// Validate checks the trade invariants.
func (t Trade) Validate() error {
	if t.Type != TradeTypeBuy && t.Type != TradeTypeSell {
		return fmt.Errorf("%w: %q", ErrInvalidTradeType, t.Type)
	}

	if t.Amount.Asset() != t.Asset {
		return fmt.Errorf("%w: trade %s amount is in %s", ErrAssetMismatch, t.Asset, t.Amount.Asset())
	}

	if !t.Amount.IsPositive() {
		return fmt.Errorf("%w: trade %s amount %s", ErrInvalidAmount, t.ID, t.Amount)
	}

	if !t.Price.IsPositive() {
		return fmt.Errorf("%w: trade %s price %s", ErrInvalidPrice, t.ID, t.Price)
	}

	if t.Fee.Currency() != t.Price.Currency() {
		return fmt.Errorf("%w: fee %s vs price %s", ErrCurrencyMismatch, t.Fee.Currency(), t.Price.Currency())
	}

	// A rebate can lower a buy's cost but never below zero.
	if t.IsBuy() && t.Gross().Amount().Add(t.Fee.Amount()).IsNegative() {
		return fmt.Errorf("%w: trade %s fee %s on gross %s", ErrInvalidFee, t.ID, t.Fee, t.Gross())
	}

	return nil
}

func (t Trade) IsBuy() bool  { return t.Type == TradeTypeBuy }
func (t Trade) IsSell() bool { return t.Type == TradeTypeSell }

// Gross is amount * price.
func (t Trade) Gross() Money {
	return t.Amount.Times(t.Price)
}

// TotalCost is amount * price + fee. It is what a buy adds to cost basis;
// for a sell it has no P&L meaning, use Proceeds.
func (t Trade) TotalCost() (Money, error) {
	return t.Gross().Add(t.Fee)
}

// Proceeds is amount * price - fee and is only defined for sells. A fee larger
// than the gross value gives negative proceeds, which realize as a loss.
func (t Trade) Proceeds() (Money, error) {
	if !t.IsSell() {
		return Money{}, fmt.Errorf("%w: trade %s is %s", ErrNotASell, t.ID, t.Type)
	}
	return t.Gross().Add(t.Fee.Neg())
}
