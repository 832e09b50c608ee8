package domain

import "errors"

var (
	// Value object errors
	ErrInvalidCurrency  = errors.New("invalid currency code")
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrMoneyUnderflow   = errors.New("money subtraction would be negative")
	ErrInvalidSymbol    = errors.New("invalid asset symbol")
	ErrNegativeAmount   = errors.New("asset amount cannot be negative")
	ErrAssetMismatch    = errors.New("asset mismatch")
	ErrAmountUnderflow  = errors.New("asset amount subtraction would be negative")
	ErrInvalidTimestamp = errors.New("timestamp cannot be negative")

	// Entity errors
	ErrZeroLotAmount        = errors.New("purchase lot amount cannot be zero")
	ErrNegativeLotCost      = errors.New("purchase lot cost cannot be negative")
	ErrInsufficientLot      = errors.New("cannot consume more than lot holds")
	ErrInvalidTradeType     = errors.New("invalid trade type")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrInvalidPrice         = errors.New("price must be positive")
	ErrNotASell             = errors.New("proceeds are only defined for sell trades")
	ErrInvalidDepositStatus = errors.New("invalid deposit status")
	ErrDuplicateAsset       = errors.New("asset already present in portfolio")
	ErrInvalidFee           = errors.New("fee exceeds trade value")
	ErrInvalidName          = errors.New("invalid portfolio name")
	ErrPortfolioNotFound    = errors.New("portfolio not found")

	// Storage errors
	ErrDuplicateTrade   = errors.New("trade already recorded")
	ErrDuplicateDeposit = errors.New("deposit already recorded")
)
