package usecase

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/goportfolio/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// PortfolioTotals aggregates FIFO results of the assets still held.
type PortfolioTotals struct {
	TotalValue      decimal.Decimal `json:"total_value"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	TotalRealized   decimal.Decimal `json:"total_realized"`
	TotalUnrealized decimal.Decimal `json:"total_unrealized"`
	TotalPnL        decimal.Decimal `json:"total_pnl"`
	TotalReturnPct  decimal.Decimal `json:"total_return_pct"`
	AssetCount      int             `json:"asset_count"`
}

// PortfolioSummary is the portfolio-wide record exposed to callers.
type PortfolioSummary struct {
	TotalValue         decimal.Decimal `json:"total_value"`
	TotalCostBasis     decimal.Decimal `json:"total_cost_basis"`
	TotalRealizedPnL   decimal.Decimal `json:"total_realized_pnl"`
	TotalUnrealizedPnL decimal.Decimal `json:"total_unrealized_pnl"`
	TotalPnL           decimal.Decimal `json:"total_pnl"`
	ReturnPercentage   decimal.Decimal `json:"return_percentage"`
	AssetCount         int             `json:"asset_count"`
	LastUpdated        time.Time       `json:"last_updated"`
	Currency           string          `json:"currency"`
}

// HoldingRecord is the per-asset record exposed to callers.
type HoldingRecord struct {
	Symbol              domain.AssetSymbol `json:"symbol"`
	Amount              decimal.Decimal    `json:"amount"`
	CostBasis           decimal.Decimal    `json:"cost_basis"`
	CurrentValue        decimal.Decimal    `json:"current_value"`
	CurrentPrice        decimal.Decimal    `json:"current_price"`
	RealizedPnL         decimal.Decimal    `json:"realized_pnl"`
	UnrealizedPnL       decimal.Decimal    `json:"unrealized_pnl"`
	TotalPnL            decimal.Decimal    `json:"total_pnl"`
	ReturnPercentage    decimal.Decimal    `json:"return_percentage"`
	PortfolioPercentage decimal.Decimal    `json:"portfolio_percentage"`
}

// PortfolioPerformance bundles the summary with holdings sorted by allocation.
type PortfolioPerformance struct {
	Summary  PortfolioSummary `json:"summary"`
	Holdings []HoldingRecord  `json:"holdings"`
}

// UpdateReport describes one UpdatePortfolioFromTrades pass.
type UpdateReport struct {
	Processed []domain.AssetSymbol
	Skipped   []domain.AssetSymbol
	Results   map[domain.AssetSymbol]*FIFOResult
}

// PortfolioCalculationService runs FIFO for every asset of a portfolio and
// derives portfolio-wide figures.
type PortfolioCalculationService struct {
	fifo *FIFOCalculationService
	cfg  CalculationConfig
	log  zerolog.Logger
	now  func() time.Time
}

// NewPortfolioCalculationService creates a new PortfolioCalculationService.
func NewPortfolioCalculationService(fifo *FIFOCalculationService, cfg CalculationConfig, log zerolog.Logger) *PortfolioCalculationService {
	return &PortfolioCalculationService{
		fifo: fifo,
		cfg:  cfg,
		log:  log.With().Str("service", "portfolio_calculation").Logger(),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// CalculatePortfolioTotals sums FIFO results over assets with a positive
// remaining amount. Realized P&L of exited assets is not included here.
func (s *PortfolioCalculationService) CalculatePortfolioTotals(results map[domain.AssetSymbol]*FIFOResult) PortfolioTotals {
	totals := PortfolioTotals{
		TotalValue:      decimal.Zero,
		TotalCost:       decimal.Zero,
		TotalRealized:   decimal.Zero,
		TotalUnrealized: decimal.Zero,
	}

	for _, r := range results {
		if r == nil || !r.Amount.IsPositive() {
			continue
		}

		totals.TotalValue = totals.TotalValue.Add(r.Value)
		totals.TotalCost = totals.TotalCost.Add(r.Cost)
		totals.TotalRealized = totals.TotalRealized.Add(r.Realised)
		totals.TotalUnrealized = totals.TotalUnrealized.Add(r.Unrealised)
		totals.AssetCount++
	}

	totals.TotalPnL = totals.TotalRealized.Add(totals.TotalUnrealized)
	totals.TotalReturnPct = decimal.Zero
	if !totals.TotalCost.IsZero() {
		totals.TotalReturnPct = totals.TotalPnL.DivRound(totals.TotalCost, s.cfg.precision()).Mul(hundred)
	}

	return totals
}

// CalculateAssetAllocation returns value as a percentage of total, 0 when
// total is not positive.
func (s *PortfolioCalculationService) CalculateAssetAllocation(value, total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	return value.DivRound(total, s.cfg.precision()).Mul(hundred)
}

// UpdatePortfolioFromTrades recomputes every asset that has trades and
// returns the resulting snapshot. Assets without a current price are skipped
// with a warning; the input portfolio is never modified.
func (s *PortfolioCalculationService) UpdatePortfolioFromTrades(
	portfolio *domain.Portfolio,
	tradesByAsset map[domain.AssetSymbol][]domain.Trade,
	prices map[domain.AssetSymbol]domain.Money,
	depositsByAsset map[domain.AssetSymbol][]domain.Deposit,
) (*domain.Portfolio, *UpdateReport, error) {
	report := &UpdateReport{Results: make(map[domain.AssetSymbol]*FIFOResult)}
	next := portfolio

	for _, symbol := range sortedSymbols(tradesByAsset) {
		trades := tradesByAsset[symbol]
		if len(trades) == 0 {
			continue
		}

		price, ok := prices[symbol]
		if !ok {
			s.log.Warn().
				Str("portfolio_id", portfolio.ID).
				Str("asset", symbol.String()).
				Msg("no current price, skipping asset")
			report.Skipped = append(report.Skipped, symbol)
			continue
		}

		if trades[0].Asset != symbol {
			return nil, nil, fmt.Errorf("%w: trades listed under %s are for %s", domain.ErrAssetMismatch, symbol, trades[0].Asset)
		}

		result, err := s.fifo.Calculate(trades, price, depositsByAsset[symbol])
		if err != nil {
			return nil, nil, fmt.Errorf("calculate %s: %w", symbol, err)
		}

		asset, err := s.assetFromResult(next, symbol, result, price)
		if err != nil {
			return nil, nil, fmt.Errorf("update %s: %w", symbol, err)
		}

		next, err = next.WithAsset(asset)
		if err != nil {
			return nil, nil, fmt.Errorf("update %s: %w", symbol, err)
		}

		report.Processed = append(report.Processed, symbol)
		report.Results[symbol] = result
	}

	return next.Touch(s.now()), report, nil
}

// AnalyzePortfolioPerformance builds the summary record and the holding
// records, largest allocation first.
func (s *PortfolioCalculationService) AnalyzePortfolioPerformance(portfolio *domain.Portfolio) *PortfolioPerformance {
	precision := s.cfg.precision()
	totalValue := portfolio.TotalValue().Amount()

	perf := &PortfolioPerformance{
		Summary: PortfolioSummary{
			TotalValue:         totalValue,
			TotalCostBasis:     portfolio.TotalCostBasis().Amount(),
			TotalRealizedPnL:   portfolio.TotalRealizedPnL().Amount(),
			TotalUnrealizedPnL: portfolio.TotalUnrealizedPnL().Amount(),
			TotalPnL:           portfolio.TotalPnL().Amount(),
			ReturnPercentage:   portfolio.ReturnPercentage(precision),
			AssetCount:         portfolio.HeldAssetCount(),
			LastUpdated:        portfolio.UpdatedAt,
			Currency:           portfolio.Currency,
		},
		Holdings: make([]HoldingRecord, 0, portfolio.Len()),
	}

	for _, a := range portfolio.Assets() {
		if !a.Holdings.IsPositive() {
			continue
		}

		value := a.CurrentValue().Amount()
		perf.Holdings = append(perf.Holdings, HoldingRecord{
			Symbol:              a.Symbol,
			Amount:              a.Holdings.Amount(),
			CostBasis:           a.CostBasis.Amount(),
			CurrentValue:        value,
			CurrentPrice:        a.CurrentPrice.Amount(),
			RealizedPnL:         a.RealizedPnL.Amount(),
			UnrealizedPnL:       a.UnrealizedPnL().Amount(),
			TotalPnL:            a.TotalPnL().Amount(),
			ReturnPercentage:    a.ReturnPercentage(precision),
			PortfolioPercentage: s.CalculateAssetAllocation(value, totalValue),
		})
	}

	sort.SliceStable(perf.Holdings, func(i, j int) bool {
		pi, pj := perf.Holdings[i].PortfolioPercentage, perf.Holdings[j].PortfolioPercentage
		if !pi.Equal(pj) {
			return pi.GreaterThan(pj)
		}
		return perf.Holdings[i].Symbol < perf.Holdings[j].Symbol
	})

	return perf
}

func (s *PortfolioCalculationService) assetFromResult(p *domain.Portfolio, symbol domain.AssetSymbol, r *FIFOResult, price domain.Money) (domain.Asset, error) {
	asset, ok := p.Asset(symbol)
	if !ok {
		var err error
		asset, err = domain.NewAsset(symbol, p.Currency)
		if err != nil {
			return domain.Asset{}, err
		}
	}

	holdings, err := domain.NewAssetAmount(r.Amount, symbol)
	if err != nil {
		return domain.Asset{}, err
	}

	costBasis, err := domain.NewMoney(r.Cost, price.Currency())
	if err != nil {
		return domain.Asset{}, err
	}

	realized, err := domain.NewMoney(r.Realised, price.Currency())
	if err != nil {
		return domain.Asset{}, err
	}

	return asset.WithPosition(holdings, costBasis, realized, price)
}

func sortedSymbols[V any](m map[domain.AssetSymbol]V) []domain.AssetSymbol {
	symbols := make([]domain.AssetSymbol, 0, len(m))
	for s := range m {
		symbols = append(symbols, s)
	}
	sort.Slice(symbols, func(i, j int) bool { return symbols[i] < symbols[j] })
	return symbols
}
