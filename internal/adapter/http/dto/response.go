package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/goportfolio/internal/domain"
	"github.com/iho/goportfolio/internal/usecase"
)

// PortfolioResponse represents a stored portfolio snapshot in API responses.
type PortfolioResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Currency  string          `json:"currency"`
	Assets    []AssetResponse `json:"assets"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AssetResponse represents one position of a portfolio.
type AssetResponse struct {
	Symbol       string          `json:"symbol"`
	Holdings     decimal.Decimal `json:"holdings"`
	CostBasis    decimal.Decimal `json:"cost_basis"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	RealizedPnL  decimal.Decimal `json:"realized_pnl"`
}

// PortfolioFromDomain converts a domain portfolio to response.
func PortfolioFromDomain(p *domain.Portfolio) *PortfolioResponse {
	assets := p.Assets()
	resp := &PortfolioResponse{
		ID:        p.ID,
		Name:      p.Name,
		Currency:  p.Currency,
		Assets:    make([]AssetResponse, len(assets)),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}

	for i, a := range assets {
		resp.Assets[i] = AssetResponse{
			Symbol:       a.Symbol.String(),
			Holdings:     a.Holdings.Amount(),
			CostBasis:    a.CostBasis.Amount(),
			CurrentPrice: a.CurrentPrice.Amount(),
			RealizedPnL:  a.RealizedPnL.Amount(),
		}
	}

	return resp
}

// PortfoliosFromDomain converts domain portfolios to responses.
func PortfoliosFromDomain(portfolios []*domain.Portfolio) []*PortfolioResponse {
	result := make([]*PortfolioResponse, len(portfolios))
	for i, p := range portfolios {
		result[i] = PortfolioFromDomain(p)
	}
	return result
}

// ListPortfoliosResponse wraps a page of portfolios.
type ListPortfoliosResponse struct {
	Portfolios []*PortfolioResponse `json:"portfolios"`
	Limit      int                  `json:"limit"`
	Offset     int                  `json:"offset"`
}

// TradeResponse represents a stored trade.
type TradeResponse struct {
	ID        string          `json:"id"`
	Asset     string          `json:"asset"`
	Type      string          `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Price     decimal.Decimal `json:"price"`
	Fee       decimal.Decimal `json:"fee"`
	Currency  string          `json:"currency"`
	Timestamp int64           `json:"timestamp"`
}

// TradeFromDomain converts a domain trade to response.
func TradeFromDomain(t *domain.Trade) *TradeResponse {
	return &TradeResponse{
		ID:        t.ID,
		Asset:     t.Asset.String(),
		Type:      string(t.Type),
		Amount:    t.Amount.Amount(),
		Price:     t.Price.Amount(),
		Fee:       t.Fee.Amount(),
		Currency:  t.Price.Currency(),
		Timestamp: t.Timestamp.Millis(),
	}
}

// DepositResponse represents a stored deposit.
type DepositResponse struct {
	ID        string          `json:"id"`
	Asset     string          `json:"asset"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	Timestamp int64           `json:"timestamp"`
}

// DepositFromDomain converts a domain deposit to response.
func DepositFromDomain(d *domain.Deposit) *DepositResponse {
	return &DepositResponse{
		ID:        d.ID,
		Asset:     d.Asset.String(),
		Amount:    d.Amount,
		Status:    string(d.Status),
		Timestamp: d.Timestamp.Millis(),
	}
}

// PriceResponse represents the current price of an asset.
type PriceResponse struct {
	Symbol   string          `json:"symbol"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
}

// RecalculationResponse is the outcome of a recalculation.
type RecalculationResponse struct {
	Summary  usecase.PortfolioSummary `json:"summary"`
	Holdings []usecase.HoldingRecord  `json:"holdings"`
	Skipped  []string                 `json:"skipped"`
}

// RecalculationFromUseCase converts a recalculation result to response.
func RecalculationFromUseCase(r *usecase.RecalculationResult) *RecalculationResponse {
	skipped := make([]string, len(r.Skipped))
	for i, s := range r.Skipped {
		skipped[i] = s.String()
	}

	return &RecalculationResponse{
		Summary:  r.Performance.Summary,
		Holdings: r.Performance.Holdings,
		Skipped:  skipped,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
