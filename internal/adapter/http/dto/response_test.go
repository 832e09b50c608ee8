package dto

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/goportfolio/internal/domain"
	"github.com/iho/goportfolio/internal/usecase"
)

func TestPortfolioFromDomain(t *testing.T) {
	p, err := domain.NewPortfolio("pf-1", "Main", "USD")
	if err != nil {
		t.Fatalf("NewPortfolio: %v", err)
	}
	p.CreatedAt = time.Unix(100, 0).UTC()

	asset, err := domain.NewAsset("BTC", "USD")
	if err != nil {
		t.Fatalf("NewAsset: %v", err)
	}
	holdings, _ := domain.NewAssetAmount(decimal.RequireFromString("1.5"), "BTC")
	asset, err = asset.WithPosition(holdings, domain.MustMoney("150", "USD"), domain.MustMoney("10", "USD"), domain.MustMoney("120", "USD"))
	if err != nil {
		t.Fatalf("WithPosition: %v", err)
	}

	p, err = p.AddAsset(asset)
	if err != nil {
		t.Fatalf("AddAsset: %v", err)
	}

	resp := PortfolioFromDomain(p)

	if resp.ID != "pf-1" || resp.Name != "Main" || resp.Currency != "USD" || !resp.CreatedAt.Equal(p.CreatedAt) {
		t.Fatalf("unexpected header fields: %+v", resp)
	}
	if len(resp.Assets) != 1 {
		t.Fatalf("expected 1 asset, got %d", len(resp.Assets))
	}

	a := resp.Assets[0]
	if a.Symbol != "BTC" || !a.Holdings.Equal(decimal.RequireFromString("1.5")) ||
		!a.CostBasis.Equal(decimal.NewFromInt(150)) || !a.CurrentPrice.Equal(decimal.NewFromInt(120)) ||
		!a.RealizedPnL.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected asset: %+v", a)
	}

	if got := PortfoliosFromDomain([]*domain.Portfolio{p, p}); len(got) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(got))
	}
}

func TestTradeFromDomain(t *testing.T) {
	amount, _ := domain.NewAssetAmount(decimal.NewFromInt(2), "ETH")
	trade, err := domain.NewTrade("t1", "ETH", domain.TradeTypeBuy, amount, domain.MustMoney("100", "EUR"), domain.MustMoney("1", "EUR"), 42)
	if err != nil {
		t.Fatalf("NewTrade: %v", err)
	}

	resp := TradeFromDomain(&trade)

	if resp.ID != "t1" || resp.Asset != "ETH" || resp.Type != "BUY" || resp.Currency != "EUR" || resp.Timestamp != 42 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if !resp.Amount.Equal(decimal.NewFromInt(2)) || !resp.Price.Equal(decimal.NewFromInt(100)) || !resp.Fee.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("unexpected amounts: %+v", resp)
	}
}

func TestDepositFromDomain(t *testing.T) {
	resp := DepositFromDomain(&domain.Deposit{
		ID:        "d1",
		Asset:     "SOL",
		Amount:    decimal.NewFromInt(3),
		Status:    domain.DepositStatusPending,
		Timestamp: 7,
	})

	if resp.ID != "d1" || resp.Asset != "SOL" || resp.Status != "pending" || resp.Timestamp != 7 || !resp.Amount.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestRecalculationFromUseCase(t *testing.T) {
	result := &usecase.RecalculationResult{
		Performance: &usecase.PortfolioPerformance{
			Summary:  usecase.PortfolioSummary{AssetCount: 1, Currency: "USD"},
			Holdings: []usecase.HoldingRecord{{Symbol: "BTC"}},
		},
		Skipped: []domain.AssetSymbol{"ETH", "SOL"},
	}

	resp := RecalculationFromUseCase(result)

	if resp.Summary.AssetCount != 1 || len(resp.Holdings) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(resp.Skipped) != 2 || resp.Skipped[0] != "ETH" || resp.Skipped[1] != "SOL" {
		t.Fatalf("unexpected skipped: %v", resp.Skipped)
	}
}
