package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/goportfolio/internal/domain"
	"github.com/iho/goportfolio/internal/usecase"
	"github.com/iho/goportfolio/internal/usecase/mocks"
)

type useCaseFixture struct {
	uc        *usecase.PortfolioUseCase
	portfolio *mocks.FakePortfolioRepository
	trades    *mocks.FakeTradeRepository
	deposits  *mocks.FakeDepositRepository
	prices    *mocks.FakePriceProvider
	metrics   *mocks.RecordingMetrics
}

func newUseCaseFixture(t *testing.T, retrier usecase.Retrier) *useCaseFixture {
	t.Helper()

	f := &useCaseFixture{
		portfolio: mocks.NewFakePortfolioRepository(newEmptyPortfolio(t)),
		trades:    &mocks.FakeTradeRepository{Trades: map[string]map[domain.AssetSymbol][]domain.Trade{}},
		deposits:  &mocks.FakeDepositRepository{Deposits: map[string]map[domain.AssetSymbol][]domain.Deposit{}},
		prices:    &mocks.FakePriceProvider{Prices: map[domain.AssetSymbol]domain.Money{}},
		metrics:   mocks.NewRecordingMetrics(),
	}

	f.uc = usecase.NewPortfolioUseCase(usecase.PortfolioUseCaseConfig{
		PortfolioRepo: f.portfolio,
		TradeRepo:     f.trades,
		DepositRepo:   f.deposits,
		Prices:        f.prices,
		Calculator:    newCalculator(),
		IDGen:         &mocks.SequenceIDGenerator{Prefix: "pf"},
		Retrier:       retrier,
		Metrics:       f.metrics,
		Logger:        zerolog.Nop(),
	})

	return f
}

func TestPortfolioUseCase_CreatePortfolio(t *testing.T) {
	ctrl := gomock.NewController(t)

	repo := mocks.NewMockPortfolioRepository(ctrl)
	idGen := mocks.NewMockIDGenerator(ctrl)

	idGen.EXPECT().Generate().Return("01HXYZ")
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p *domain.Portfolio) error {
		assert.Equal(t, "01HXYZ", p.ID)
		assert.Equal(t, "Long term", p.Name)
		assert.Equal(t, "EUR", p.Currency)
		assert.False(t, p.CreatedAt.IsZero())
		return nil
	})

	uc := usecase.NewPortfolioUseCase(usecase.PortfolioUseCaseConfig{
		PortfolioRepo: repo,
		IDGen:         idGen,
		Calculator:    newCalculator(),
		Logger:        zerolog.Nop(),
	})

	p, err := uc.CreatePortfolio(context.Background(), usecase.CreatePortfolioInput{Name: " Long term ", Currency: "EUR"})
	require.NoError(t, err)
	assert.Equal(t, "01HXYZ", p.ID)
}

func TestPortfolioUseCase_CreatePortfolio_DefaultCurrency(t *testing.T) {
	ctrl := gomock.NewController(t)

	repo := mocks.NewMockPortfolioRepository(ctrl)
	idGen := mocks.NewMockIDGenerator(ctrl)

	idGen.EXPECT().Generate().Return("01HXYZ")
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	uc := usecase.NewPortfolioUseCase(usecase.PortfolioUseCaseConfig{
		PortfolioRepo:   repo,
		IDGen:           idGen,
		Logger:          zerolog.Nop(),
		DefaultCurrency: "usd",
	})

	p, err := uc.CreatePortfolio(context.Background(), usecase.CreatePortfolioInput{Name: "Main"})
	require.NoError(t, err)
	assert.Equal(t, "USD", p.Currency)
}

func TestPortfolioUseCase_CreatePortfolio_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		input   usecase.CreatePortfolioInput
		wantErr error
	}{
		{"empty name", usecase.CreatePortfolioInput{Name: "  ", Currency: "USD"}, domain.ErrInvalidName},
		{"bad currency", usecase.CreatePortfolioInput{Name: "Main", Currency: "US"}, domain.ErrInvalidCurrency},
		{"no currency and no default", usecase.CreatePortfolioInput{Name: "Main"}, domain.ErrInvalidCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			idGen := mocks.NewMockIDGenerator(ctrl)
			idGen.EXPECT().Generate().Return("id")

			uc := usecase.NewPortfolioUseCase(usecase.PortfolioUseCaseConfig{
				PortfolioRepo: mocks.NewMockPortfolioRepository(ctrl),
				IDGen:         idGen,
				Logger:        zerolog.Nop(),
			})

			_, err := uc.CreatePortfolio(context.Background(), tt.input)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPortfolioUseCase_ListPortfolios_ClampsPagination(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockPortfolioRepository(ctrl)

	gomock.InOrder(
		repo.EXPECT().List(gomock.Any(), 100, 0).Return(nil, nil),
		repo.EXPECT().List(gomock.Any(), 20, 5).Return(nil, nil),
	)

	uc := usecase.NewPortfolioUseCase(usecase.PortfolioUseCaseConfig{PortfolioRepo: repo, Logger: zerolog.Nop()})

	_, err := uc.ListPortfolios(context.Background(), 500, -3)
	require.NoError(t, err)
	_, err = uc.ListPortfolios(context.Background(), 0, 5)
	require.NoError(t, err)
}

func TestPortfolioUseCase_RecalculatePortfolio(t *testing.T) {
	f := newUseCaseFixture(t, nil)

	f.trades.Trades["pf-1"] = map[domain.AssetSymbol][]domain.Trade{
		"BTC": {
			buy(t, "b1", "2.0", "30000", "50", 1),
			buy(t, "b2", "1.0", "40000", "25", 2),
			sell(t, "s1", "1.5", "50000", "75", 3),
		},
		"ETH": {trade(t, "e1", "ETH", domain.TradeTypeBuy, "1", "2000", "0", 1)},
		"SOL": {trade(t, "x1", "SOL", domain.TradeTypeBuy, "1", "20", "0", 1)},
	}
	f.prices.Prices["BTC"] = usd("45000")
	f.prices.Errors = map[domain.AssetSymbol]error{"SOL": errors.New("upstream timeout")}

	result, err := f.uc.RecalculatePortfolio(context.Background(), "pf-1")
	require.NoError(t, err)

	assert.Equal(t, []domain.AssetSymbol{"ETH", "SOL"}, result.Skipped)
	assert.Equal(t, 3, f.prices.Calls())

	stored, err := f.portfolio.GetByID(context.Background(), "pf-1")
	require.NoError(t, err)
	assert.Same(t, result.Portfolio, stored)

	btc, ok := stored.Asset("BTC")
	require.True(t, ok)
	requireDecimal(t, "1.5", btc.Holdings.Amount(), "holdings")
	requireDecimal(t, "29887.5", btc.RealizedPnL.Amount(), "realized")

	requireDecimal(t, "67500", result.Performance.Summary.TotalValue, "total_value")
	require.Len(t, result.Performance.Holdings, 1)
	requireDecimal(t, "100", result.Performance.Holdings[0].PortfolioPercentage, "allocation")

	assert.Equal(t, 1, f.metrics.Recalculation["success"])
	assert.Equal(t, 1, f.metrics.Skipped["no_price"])
	assert.Equal(t, 1, f.metrics.Skipped["price_error"])
}

func TestPortfolioUseCase_RecalculatePortfolio_RecordsOversells(t *testing.T) {
	f := newUseCaseFixture(t, nil)

	f.trades.Trades["pf-1"] = map[domain.AssetSymbol][]domain.Trade{
		"BTC": {
			buy(t, "b1", "1", "100", "0", 1),
			sell(t, "s1", "2", "100", "0", 2),
			sell(t, "s2", "1.05", "100", "0", 3),
		},
	}
	f.prices.Prices["BTC"] = usd("100")

	_, err := f.uc.RecalculatePortfolio(context.Background(), "pf-1")
	require.NoError(t, err)

	assert.Equal(t, 1, f.metrics.Oversells["synthetic_lot"])
	assert.Equal(t, 1, f.metrics.Oversells["warn"])
}

func TestPortfolioUseCase_RecalculatePortfolio_Errors(t *testing.T) {
	t.Run("unknown portfolio", func(t *testing.T) {
		f := newUseCaseFixture(t, nil)

		_, err := f.uc.RecalculatePortfolio(context.Background(), "missing")
		require.ErrorIs(t, err, domain.ErrPortfolioNotFound)
		assert.Equal(t, 1, f.metrics.Recalculation["error"])
	})

	t.Run("trade repository failure", func(t *testing.T) {
		f := newUseCaseFixture(t, nil)
		repoErr := errors.New("connection reset")
		f.trades.Err = repoErr

		_, err := f.uc.RecalculatePortfolio(context.Background(), "pf-1")
		require.ErrorIs(t, err, repoErr)
		assert.Zero(t, f.portfolio.Saves())
	})

	t.Run("deposit repository failure", func(t *testing.T) {
		f := newUseCaseFixture(t, nil)
		repoErr := errors.New("connection reset")
		f.deposits.Err = repoErr

		_, err := f.uc.RecalculatePortfolio(context.Background(), "pf-1")
		require.ErrorIs(t, err, repoErr)
	})

	t.Run("calculation failure keeps stored snapshot", func(t *testing.T) {
		f := newUseCaseFixture(t, nil)
		f.trades.Trades["pf-1"] = map[domain.AssetSymbol][]domain.Trade{
			"ETH": {buy(t, "b1", "1", "100", "0", 1)},
		}
		f.prices.Prices["ETH"] = usd("100")

		before, _ := f.portfolio.GetByID(context.Background(), "pf-1")

		_, err := f.uc.RecalculatePortfolio(context.Background(), "pf-1")
		require.ErrorIs(t, err, domain.ErrAssetMismatch)

		after, _ := f.portfolio.GetByID(context.Background(), "pf-1")
		assert.Same(t, before, after)
	})

	t.Run("canceled context", func(t *testing.T) {
		f := newUseCaseFixture(t, nil)
		f.trades.Trades["pf-1"] = map[domain.AssetSymbol][]domain.Trade{
			"BTC": {buy(t, "b1", "1", "100", "0", 1)},
		}
		f.prices.Errors = map[domain.AssetSymbol]error{"BTC": context.Canceled}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := f.uc.RecalculatePortfolio(ctx, "pf-1")
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestPortfolioUseCase_RecalculatePortfolio_RetriesSave(t *testing.T) {
	ctrl := gomock.NewController(t)
	retrier := mocks.NewMockRetrier(ctrl)
	retrier.EXPECT().Retry(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, op func() error) error {
		if err := op(); err == nil {
			return nil
		}
		return op()
	})

	f := newUseCaseFixture(t, retrier)
	f.trades.Trades["pf-1"] = map[domain.AssetSymbol][]domain.Trade{
		"BTC": {buy(t, "b1", "1", "100", "0", 1)},
	}
	f.prices.Prices["BTC"] = usd("100")

	attempts := 0
	f.portfolio.SaveFunc = func(context.Context, *domain.Portfolio) error {
		attempts++
		if attempts == 1 {
			return errors.New("serialization failure")
		}
		return nil
	}

	_, err := f.uc.RecalculatePortfolio(context.Background(), "pf-1")
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 1, f.portfolio.Saves())
}

func TestPortfolioUseCase_RecalculatePortfolio_Concurrent(t *testing.T) {
	f := newUseCaseFixture(t, nil)
	f.trades.Trades["pf-1"] = map[domain.AssetSymbol][]domain.Trade{
		"BTC": {buy(t, "b1", "1", "100", "0", 1), sell(t, "s1", "0.25", "120", "0", 2)},
	}
	f.prices.Prices["BTC"] = usd("110")

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.RecalculatePortfolio(context.Background(), "pf-1")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, 10, f.portfolio.Saves())

	summary, err := f.uc.GetSummary(context.Background(), "pf-1")
	require.NoError(t, err)
	requireDecimal(t, "82.5", summary.TotalValue, "total_value")
	requireDecimal(t, "5", summary.TotalRealizedPnL, "total_realized_pnl")
}

func TestPortfolioUseCase_Reads(t *testing.T) {
	f := newUseCaseFixture(t, nil)
	f.trades.Trades["pf-1"] = map[domain.AssetSymbol][]domain.Trade{
		"BTC": {buy(t, "b1", "1", "100", "0", 1)},
		"ETH": {trade(t, "e1", "ETH", domain.TradeTypeBuy, "2", "50", "0", 1)},
	}
	f.prices.Prices["BTC"] = usd("300")
	f.prices.Prices["ETH"] = usd("50")

	_, err := f.uc.RecalculatePortfolio(context.Background(), "pf-1")
	require.NoError(t, err)

	summary, err := f.uc.GetSummary(context.Background(), "pf-1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.AssetCount)
	requireDecimal(t, "400", summary.TotalValue, "total_value")

	holdings, err := f.uc.GetHoldings(context.Background(), "pf-1")
	require.NoError(t, err)
	require.Len(t, holdings, 2)
	assert.Equal(t, domain.AssetSymbol("BTC"), holdings[0].Symbol)

	_, err = f.uc.GetHoldings(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrPortfolioNotFound)
}

func TestPortfolioUseCase_CalculateFIFO(t *testing.T) {
	f := newUseCaseFixture(t, nil)

	result, err := f.uc.CalculateFIFO(usecase.CalculateFIFOInput{
		Trades:       []domain.Trade{sell(t, "s1", "0.5", "50000", "25", 2)},
		Deposits:     []domain.Deposit{deposit("BTC", "1.0", domain.DepositStatusCompleted, 1)},
		CurrentPrice: usd("60000"),
	})
	require.NoError(t, err)

	requireResult(t, expectedResult{"0.5", "0", "30000", "24975", "30000", "0"}, result)
}

func TestPortfolioUseCase_RecordTrade(t *testing.T) {
	f := newUseCaseFixture(t, nil)
	ctx := context.Background()

	tr, err := f.uc.RecordTrade(ctx, "pf-1", usecase.RecordTradeInput{
		Asset:     "BTC",
		Type:      domain.TradeTypeBuy,
		Amount:    dec("0.5"),
		Price:     dec("40000"),
		Fee:       dec("10"),
		Timestamp: 1700000000000,
	})
	require.NoError(t, err)
	assert.Equal(t, "pf-1", tr.ID)
	assert.Equal(t, "USD", tr.Price.Currency())

	stored := f.trades.Trades["pf-1"]["BTC"]
	require.Len(t, stored, 1)
	assert.Equal(t, tr.ID, stored[0].ID)

	_, err = f.uc.RecordTrade(ctx, "pf-1", usecase.RecordTradeInput{
		ID: "t-2", Asset: "BTC", Type: domain.TradeTypeSell, Amount: dec("0"), Price: dec("1"), Fee: dec("0"),
	})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = f.uc.RecordTrade(ctx, "pf-1", usecase.RecordTradeInput{
		ID: "t-4", Asset: "BTC", Type: domain.TradeTypeBuy, Amount: dec("1"), Price: dec("1"), Fee: dec("-2"),
	})
	require.ErrorIs(t, err, domain.ErrInvalidFee)
	require.Len(t, f.trades.Trades["pf-1"]["BTC"], 1, "rejected trade must not be stored")

	_, err = f.uc.RecordTrade(ctx, "missing", usecase.RecordTradeInput{
		ID: "t-3", Asset: "BTC", Type: domain.TradeTypeBuy, Amount: dec("1"), Price: dec("1"), Fee: dec("0"),
	})
	require.ErrorIs(t, err, domain.ErrPortfolioNotFound)
}

func TestPortfolioUseCase_RecordDeposit(t *testing.T) {
	f := newUseCaseFixture(t, nil)
	ctx := context.Background()

	d, err := f.uc.RecordDeposit(ctx, "pf-1", domain.Deposit{
		Asset: "ETH", Amount: dec("3"), Status: "COMPLETED", Timestamp: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DepositStatusCompleted, d.Status)
	assert.NotEmpty(t, d.ID)
	require.Len(t, f.deposits.Deposits["pf-1"]["ETH"], 1)

	_, err = f.uc.RecordDeposit(ctx, "pf-1", domain.Deposit{Asset: "ETH", Amount: dec("-1"), Status: "pending"})
	require.ErrorIs(t, err, domain.ErrNegativeAmount)

	_, err = f.uc.RecordDeposit(ctx, "pf-1", domain.Deposit{Asset: "ETH", Amount: dec("1"), Status: "lost"})
	require.ErrorIs(t, err, domain.ErrInvalidDepositStatus)
}

func TestPortfolioUseCase_SetPrice(t *testing.T) {
	f := newUseCaseFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.uc.SetPrice(ctx, "BTC", usd("61000")))

	price, found, err := f.prices.GetPrice(ctx, "BTC", "USD")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, price.Equal(usd("61000")))

	err = f.uc.SetPrice(ctx, "BTC", usd("0"))
	require.ErrorIs(t, err, domain.ErrInvalidPrice)
}
