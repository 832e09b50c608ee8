package dto

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/goportfolio/internal/domain"
	"github.com/iho/goportfolio/internal/usecase"
)

// CreatePortfolioRequest represents a request to create a portfolio.
type CreatePortfolioRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// ToUseCaseInput converts to use case input.
func (r *CreatePortfolioRequest) ToUseCaseInput() usecase.CreatePortfolioInput {
	return usecase.CreatePortfolioInput{
		Name:     r.Name,
		Currency: r.Currency,
	}
}

// TradeRequest represents an executed trade. Timestamp is in unix milliseconds.
type TradeRequest struct {
	ID        string          `json:"id,omitempty"`
	Asset     string          `json:"asset"`
	Type      string          `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Price     decimal.Decimal `json:"price"`
	Fee       decimal.Decimal `json:"fee"`
	Timestamp int64           `json:"timestamp"`
}

// ToUseCaseInput converts to use case input.
func (r *TradeRequest) ToUseCaseInput() (usecase.RecordTradeInput, error) {
	asset, err := domain.NewAssetSymbol(r.Asset)
	if err != nil {
		return usecase.RecordTradeInput{}, err
	}

	typ, err := domain.ParseTradeType(r.Type)
	if err != nil {
		return usecase.RecordTradeInput{}, err
	}

	ts, err := domain.NewTimestamp(r.Timestamp)
	if err != nil {
		return usecase.RecordTradeInput{}, err
	}

	return usecase.RecordTradeInput{
		ID:        r.ID,
		Asset:     asset,
		Type:      typ,
		Amount:    r.Amount,
		Price:     r.Price,
		Fee:       r.Fee,
		Timestamp: ts,
	}, nil
}

// ToDomain builds a validated trade with price and fee in currency.
func (r *TradeRequest) ToDomain(currency string) (domain.Trade, error) {
	in, err := r.ToUseCaseInput()
	if err != nil {
		return domain.Trade{}, err
	}

	amount, err := domain.NewAssetAmount(in.Amount, in.Asset)
	if err != nil {
		return domain.Trade{}, err
	}

	price, err := domain.NewMoney(in.Price, currency)
	if err != nil {
		return domain.Trade{}, err
	}

	fee, err := domain.NewMoney(in.Fee, currency)
	if err != nil {
		return domain.Trade{}, err
	}

	return domain.NewTrade(in.ID, in.Asset, in.Type, amount, price, fee, in.Timestamp)
}

// DepositRequest represents an inbound transfer. Timestamp is in unix
// milliseconds.
type DepositRequest struct {
	ID        string          `json:"id,omitempty"`
	Asset     string          `json:"asset"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	Timestamp int64           `json:"timestamp"`
}

// ToDomain converts to a validated deposit.
func (r *DepositRequest) ToDomain() (domain.Deposit, error) {
	asset, err := domain.NewAssetSymbol(r.Asset)
	if err != nil {
		return domain.Deposit{}, err
	}

	status, err := domain.ParseDepositStatus(r.Status)
	if err != nil {
		return domain.Deposit{}, err
	}

	d := domain.Deposit{
		ID:        r.ID,
		Asset:     asset,
		Amount:    r.Amount,
		Status:    status,
		Timestamp: domain.Timestamp(r.Timestamp),
	}

	if err := d.Validate(); err != nil {
		return domain.Deposit{}, err
	}

	return d, nil
}

// FIFORequest is a self-contained FIFO calculation for one asset. Trades and
// deposits without an asset inherit Asset.
type FIFORequest struct {
	Asset        string           `json:"asset"`
	CurrentPrice decimal.Decimal  `json:"current_price"`
	Currency     string           `json:"currency"`
	Trades       []TradeRequest   `json:"trades"`
	Deposits     []DepositRequest `json:"deposits,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *FIFORequest) ToUseCaseInput() (usecase.CalculateFIFOInput, error) {
	price, err := domain.NewMoney(r.CurrentPrice, r.Currency)
	if err != nil {
		return usecase.CalculateFIFOInput{}, err
	}

	trades := make([]domain.Trade, len(r.Trades))
	for i := range r.Trades {
		t := r.Trades[i]
		if t.Asset == "" {
			t.Asset = r.Asset
		}

		trades[i], err = t.ToDomain(r.Currency)
		if err != nil {
			return usecase.CalculateFIFOInput{}, fmt.Errorf("trade %d: %w", i, err)
		}
	}

	deposits := make([]domain.Deposit, len(r.Deposits))
	for i := range r.Deposits {
		d := r.Deposits[i]
		if d.Asset == "" {
			d.Asset = r.Asset
		}

		deposits[i], err = d.ToDomain()
		if err != nil {
			return usecase.CalculateFIFOInput{}, fmt.Errorf("deposit %d: %w", i, err)
		}
	}

	return usecase.CalculateFIFOInput{
		Trades:       trades,
		Deposits:     deposits,
		CurrentPrice: price,
	}, nil
}

// SetPriceRequest represents the current price of an asset.
type SetPriceRequest struct {
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
}

// ToDomain converts to a price in the requested currency.
func (r *SetPriceRequest) ToDomain() (domain.Money, error) {
	return domain.NewMoney(r.Price, r.Currency)
}
