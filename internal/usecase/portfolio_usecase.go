package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/iho/goportfolio/internal/domain"
)

const (
	recalcStatusSuccess = "success"
	recalcStatusError   = "error"

	skipReasonNoPrice    = "no_price"
	skipReasonPriceError = "price_error"
)

// PortfolioUseCaseConfig holds the dependencies of PortfolioUseCase.
type PortfolioUseCaseConfig struct {
	PortfolioRepo    PortfolioRepository
	TradeRepo        TradeRepository
	DepositRepo      DepositRepository
	Prices           PriceStore
	Calculator       *PortfolioCalculationService
	IDGen            IDGenerator
	Retrier          Retrier         // optional
	Metrics          MetricsRecorder // optional
	Logger           zerolog.Logger
	FetchConcurrency int
	DefaultCurrency  string // used when CreatePortfolioInput.Currency is empty
}

// PortfolioUseCase loads trade history and prices, recomputes portfolios and
// serves the resulting records.
type PortfolioUseCase struct {
	portfolioRepo    PortfolioRepository
	tradeRepo        TradeRepository
	depositRepo      DepositRepository
	prices           PriceStore
	calc             *PortfolioCalculationService
	idGen            IDGenerator
	retrier          Retrier
	metrics          MetricsRecorder
	log              zerolog.Logger
	fetchConcurrency int
	defaultCurrency  string

	locks sync.Map // portfolio id -> *sync.Mutex
}

// NewPortfolioUseCase creates a new PortfolioUseCase.
func NewPortfolioUseCase(cfg PortfolioUseCaseConfig) *PortfolioUseCase {
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = DefaultPriceFetchConcurrency
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopMetrics{}
	}

	return &PortfolioUseCase{
		portfolioRepo:    cfg.PortfolioRepo,
		tradeRepo:        cfg.TradeRepo,
		depositRepo:      cfg.DepositRepo,
		prices:           cfg.Prices,
		calc:             cfg.Calculator,
		idGen:            cfg.IDGen,
		retrier:          cfg.Retrier,
		metrics:          cfg.Metrics,
		log:              cfg.Logger.With().Str("service", "portfolio").Logger(),
		fetchConcurrency: cfg.FetchConcurrency,
		defaultCurrency:  cfg.DefaultCurrency,
	}
}

// CreatePortfolioInput represents input for creating a portfolio.
type CreatePortfolioInput struct {
	Name     string
	Currency string
}

// CreatePortfolio creates an empty portfolio.
func (uc *PortfolioUseCase) CreatePortfolio(ctx context.Context, input CreatePortfolioInput) (*domain.Portfolio, error) {
	currency := input.Currency
	if currency == "" {
		currency = uc.defaultCurrency
	}

	p, err := domain.NewPortfolio(uc.idGen.Generate(), input.Name, currency)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := uc.portfolioRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

// GetPortfolio retrieves a portfolio by ID.
func (uc *PortfolioUseCase) GetPortfolio(ctx context.Context, id string) (*domain.Portfolio, error) {
	return uc.portfolioRepo.GetByID(ctx, id)
}

// ListPortfolios lists portfolios with pagination.
func (uc *PortfolioUseCase) ListPortfolios(ctx context.Context, limit, offset int) ([]*domain.Portfolio, error) {
	if limit <= 0 {
		limit = 20
	}

	if limit > 100 {
		limit = 100
	}

	if offset < 0 {
		offset = 0
	}

	return uc.portfolioRepo.List(ctx, limit, offset)
}

// RecordTradeInput represents an executed trade to store. ID is generated
// when empty.
type RecordTradeInput struct {
	ID        string
	Asset     domain.AssetSymbol
	Type      domain.TradeType
	Amount    decimal.Decimal
	Price     decimal.Decimal
	Fee       decimal.Decimal
	Timestamp domain.Timestamp
}

// RecordTrade stores a trade priced in the portfolio currency.
func (uc *PortfolioUseCase) RecordTrade(ctx context.Context, portfolioID string, input RecordTradeInput) (*domain.Trade, error) {
	p, err := uc.portfolioRepo.GetByID(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	amount, err := domain.NewAssetAmount(input.Amount, input.Asset)
	if err != nil {
		return nil, err
	}

	price, err := domain.NewMoney(input.Price, p.Currency)
	if err != nil {
		return nil, err
	}

	fee, err := domain.NewMoney(input.Fee, p.Currency)
	if err != nil {
		return nil, err
	}

	id := input.ID
	if id == "" {
		id = uc.idGen.Generate()
	}

	trade, err := domain.NewTrade(id, input.Asset, input.Type, amount, price, fee, input.Timestamp)
	if err != nil {
		return nil, err
	}

	if err := uc.tradeRepo.Create(ctx, portfolioID, trade); err != nil {
		return nil, err
	}

	return &trade, nil
}

// RecordDeposit stores an inbound transfer.
func (uc *PortfolioUseCase) RecordDeposit(ctx context.Context, portfolioID string, deposit domain.Deposit) (*domain.Deposit, error) {
	if _, err := uc.portfolioRepo.GetByID(ctx, portfolioID); err != nil {
		return nil, err
	}

	status, err := domain.ParseDepositStatus(string(deposit.Status))
	if err != nil {
		return nil, err
	}
	deposit.Status = status

	if err := deposit.Validate(); err != nil {
		return nil, err
	}

	if deposit.ID == "" {
		deposit.ID = uc.idGen.Generate()
	}

	if err := uc.depositRepo.Create(ctx, portfolioID, deposit); err != nil {
		return nil, err
	}

	return &deposit, nil
}

// SetPrice records the current price of an asset.
func (uc *PortfolioUseCase) SetPrice(ctx context.Context, symbol domain.AssetSymbol, price domain.Money) error {
	if !price.IsPositive() {
		return fmt.Errorf("%w: %s", domain.ErrInvalidPrice, price)
	}
	return uc.prices.SetPrice(ctx, symbol, price)
}

// RecalculationResult is the outcome of RecalculatePortfolio.
type RecalculationResult struct {
	Portfolio   *domain.Portfolio
	Performance *PortfolioPerformance
	Skipped     []domain.AssetSymbol
}

// RecalculatePortfolio rebuilds every position of a portfolio from its full
// trade and deposit history and saves the result. Recalculations of the same
// portfolio are serialized.
func (uc *PortfolioUseCase) RecalculatePortfolio(ctx context.Context, id string) (*RecalculationResult, error) {
	mu := uc.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	start := time.Now()

	result, err := uc.recalculate(ctx, id)
	if err != nil {
		uc.metrics.RecalculationCompleted(recalcStatusError, time.Since(start))
		uc.log.Error().Err(err).Str("portfolio_id", id).Msg("recalculation failed")
		return nil, err
	}

	uc.metrics.RecalculationCompleted(recalcStatusSuccess, time.Since(start))
	uc.log.Info().
		Str("portfolio_id", id).
		Int("assets", result.Portfolio.Len()).
		Int("skipped", len(result.Skipped)).
		Dur("duration", time.Since(start)).
		Msg("portfolio recalculated")

	return result, nil
}

func (uc *PortfolioUseCase) recalculate(ctx context.Context, id string) (*RecalculationResult, error) {
	portfolio, err := uc.portfolioRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	trades, err := uc.tradeRepo.GetAllGroupedByAsset(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load trades: %w", err)
	}

	deposits, err := uc.depositRepo.GetHistoryGroupedByAsset(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load deposits: %w", err)
	}

	prices, err := uc.fetchPrices(ctx, trades, portfolio.Currency)
	if err != nil {
		return nil, err
	}

	updated, report, err := uc.calc.UpdatePortfolioFromTrades(portfolio, trades, prices, deposits)
	if err != nil {
		return nil, err
	}

	for _, r := range report.Results {
		for _, ev := range r.Oversells {
			uc.metrics.OversellObserved(ev.Action.String())
		}
	}

	save := func() error { return uc.portfolioRepo.Save(ctx, updated) }
	if uc.retrier != nil {
		err = uc.retrier.Retry(ctx, save)
	} else {
		err = save()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save portfolio: %w", err)
	}

	return &RecalculationResult{
		Portfolio:   updated,
		Performance: uc.calc.AnalyzePortfolioPerformance(updated),
		Skipped:     report.Skipped,
	}, nil
}

// fetchPrices looks up current prices for every asset with trades. Missing
// prices and provider failures leave the asset out of the map so the
// calculation skips it.
func (uc *PortfolioUseCase) fetchPrices(ctx context.Context, trades map[domain.AssetSymbol][]domain.Trade, currency string) (map[domain.AssetSymbol]domain.Money, error) {
	var (
		mu     sync.Mutex
		prices = make(map[domain.AssetSymbol]domain.Money, len(trades))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.fetchConcurrency)

	for _, symbol := range sortedSymbols(trades) {
		if len(trades[symbol]) == 0 {
			continue
		}

		g.Go(func() error {
			price, found, err := uc.prices.GetPrice(gctx, symbol, currency)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				uc.log.Warn().Err(err).Str("asset", symbol.String()).Msg("price lookup failed")
				uc.metrics.AssetSkipped(skipReasonPriceError)
				return nil
			}

			if !found {
				uc.metrics.AssetSkipped(skipReasonNoPrice)
				return nil
			}

			mu.Lock()
			prices[symbol] = price
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return prices, nil
}

// GetPerformance returns summary and holdings of the stored portfolio.
func (uc *PortfolioUseCase) GetPerformance(ctx context.Context, id string) (*PortfolioPerformance, error) {
	p, err := uc.portfolioRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.calc.AnalyzePortfolioPerformance(p), nil
}

// GetSummary returns the portfolio summary record.
func (uc *PortfolioUseCase) GetSummary(ctx context.Context, id string) (*PortfolioSummary, error) {
	perf, err := uc.GetPerformance(ctx, id)
	if err != nil {
		return nil, err
	}
	return &perf.Summary, nil
}

// GetHoldings returns the holding records, largest allocation first.
func (uc *PortfolioUseCase) GetHoldings(ctx context.Context, id string) ([]HoldingRecord, error) {
	perf, err := uc.GetPerformance(ctx, id)
	if err != nil {
		return nil, err
	}
	return perf.Holdings, nil
}

// CalculateFIFOInput is a self-contained FIFO request for one asset.
type CalculateFIFOInput struct {
	Trades       []domain.Trade
	Deposits     []domain.Deposit
	CurrentPrice domain.Money
}

// CalculateFIFO runs the FIFO calculation without touching storage.
func (uc *PortfolioUseCase) CalculateFIFO(input CalculateFIFOInput) (*FIFOResult, error) {
	return uc.calc.fifo.Calculate(input.Trades, input.CurrentPrice, input.Deposits)
}

func (uc *PortfolioUseCase) lockFor(id string) *sync.Mutex {
	mu, _ := uc.locks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

type nopMetrics struct{}

func (nopMetrics) RecalculationCompleted(string, time.Duration) {}
func (nopMetrics) AssetSkipped(string)                          {}
func (nopMetrics) OversellObserved(string)                      {}
