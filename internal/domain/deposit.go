package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type DepositStatus string

const (
	DepositStatusCompleted DepositStatus = "completed"
	DepositStatusPending   DepositStatus = "pending"
	DepositStatusFailed    DepositStatus = "failed"
)

// ParseDepositStatus accepts any letter case.
func ParseDepositStatus(s string) (DepositStatus, error) {
	switch st := DepositStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case DepositStatusCompleted, DepositStatusPending, DepositStatusFailed:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDepositStatus, s)
	}
}

// Deposit is an external inbound transfer of an asset. Only completed deposits
// with a positive amount become lots.
type Deposit struct {
	ID        string
	Asset     AssetSymbol
	Amount    decimal.Decimal
	Status    DepositStatus
	Timestamp Timestamp
}

// Counts reports whether the deposit contributes a zero-cost lot.
func (d Deposit) Counts() bool {
	return d.Status == DepositStatusCompleted && d.Amount.IsPositive()
}

// Validate checks the deposit fields that storage relies on.
func (d Deposit) Validate() error {
	if sym, err := NewAssetSymbol(string(d.Asset)); err != nil || sym != d.Asset {
		return fmt.Errorf("%w: %q", ErrInvalidSymbol, d.Asset)
	}

	if d.Amount.IsNegative() {
		return fmt.Errorf("%w: deposit amount %s", ErrNegativeAmount, d.Amount)
	}

	if _, err := ParseDepositStatus(string(d.Status)); err != nil {
		return err
	}

	if d.Timestamp < 0 {
		return ErrInvalidTimestamp
	}

	return nil
}
