package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PurchaseLot is one acquisition (a buy, a deposit or a synthetic correction)
// tracked with its own amount and total cost. Lots only live for the duration
// of one FIFO calculation.
type PurchaseLot struct {
	id        string
	amount    AssetAmount
	cost      Money
	timestamp Timestamp
}

// NewPurchaseLot validates amount != 0 and cost >= 0.
func NewPurchaseLot(id string, amount AssetAmount, cost Money, ts Timestamp) (PurchaseLot, error) {
	if amount.IsZero() {
		return PurchaseLot{}, fmt.Errorf("%w: lot %s", ErrZeroLotAmount, id)
	}

	if cost.IsNegative() {
		return PurchaseLot{}, fmt.Errorf("%w: lot %s cost %s", ErrNegativeLotCost, id, cost)
	}

	return PurchaseLot{id: id, amount: amount, cost: cost, timestamp: ts}, nil
}

func (l PurchaseLot) ID() string           { return l.id }
func (l PurchaseLot) Amount() AssetAmount  { return l.amount }
func (l PurchaseLot) Cost() Money          { return l.cost }
func (l PurchaseLot) Timestamp() Timestamp { return l.timestamp }

// CostOf returns the share of the lot's cost attributable to x units:
// cost * (x / amount).
func (l PurchaseLot) CostOf(x AssetAmount, precision int32) (Money, error) {
	ratio, err := l.ratio(x, precision)
	if err != nil {
		return Money{}, err
	}
	return l.cost.Mul(ratio), nil
}

// Consume returns the lot left after taking x units out of it: amount - x
// units carrying cost * (1 - x/amount). Taking the whole lot fails on the
// zero-amount invariant; callers drop exhausted lots instead.
func (l PurchaseLot) Consume(x AssetAmount, precision int32) (PurchaseLot, error) {
	ratio, err := l.ratio(x, precision)
	if err != nil {
		return PurchaseLot{}, err
	}

	remaining, err := l.amount.Sub(x)
	if err != nil {
		return PurchaseLot{}, err
	}

	cost := l.cost.Mul(decimal.NewFromInt(1).Sub(ratio))

	return NewPurchaseLot(l.id, remaining, cost, l.timestamp)
}

func (l PurchaseLot) ratio(x AssetAmount, precision int32) (decimal.Decimal, error) {
	more, err := x.GreaterThan(l.amount)
	if err != nil {
		return decimal.Zero, err
	}

	if more {
		return decimal.Zero, fmt.Errorf("%w: lot %s holds %s, requested %s", ErrInsufficientLot, l.id, l.amount, x)
	}

	return x.Amount().DivRound(l.amount.Amount(), precision), nil
}
