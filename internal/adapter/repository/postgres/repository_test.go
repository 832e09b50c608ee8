package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/goportfolio/internal/domain"
)

var (
	portfolioColumns = []string{"id", "name", "currency", "created_at", "updated_at"}
	assetColumns     = []string{"symbol", "holdings", "cost_basis", "realized_pnl", "current_price", "currency"}
	tradeColumns     = []string{"id", "asset", "side", "amount", "price", "fee", "currency", "executed_at"}
	depositColumns   = []string{"id", "asset", "amount", "status", "deposited_at"}
)

func TestPortfolioRepository_GetByID(t *testing.T) {
	mockPool := newMockPool(t)
	repo := newPortfolioRepository(mockPool)

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	mockPool.ExpectQuery("SELECT id, name, currency").
		WithArgs("pf-1").
		WillReturnRows(pgxmock.NewRows(portfolioColumns).AddRow("pf-1", "Main", "USD", created, created))
	mockPool.ExpectQuery("FROM portfolio_assets").
		WithArgs("pf-1").
		WillReturnRows(pgxmock.NewRows(assetColumns).
			AddRow("ETH", "2", "4000", "150", "1500", "USD").
			AddRow("BTC", "1.5", "55037.5", "29887.5", "45000", "USD"))

	p, err := repo.GetByID(context.Background(), "pf-1")
	require.NoError(t, err)

	assert.Equal(t, "Main", p.Name)
	assert.Equal(t, created, p.CreatedAt)
	require.Equal(t, 2, p.Len())
	assert.Equal(t, domain.AssetSymbol("ETH"), p.Assets()[0].Symbol)

	btc, ok := p.Asset("BTC")
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("55037.5").Equal(btc.CostBasis.Amount()))
	assert.True(t, decimal.RequireFromString("1.5").Equal(btc.Holdings.Amount()))

	assertExpectations(t, mockPool)
}

func TestPortfolioRepository_GetByIDNotFound(t *testing.T) {
	mockPool := newMockPool(t)
	repo := newPortfolioRepository(mockPool)

	mockPool.ExpectQuery("SELECT id, name, currency").WithArgs("nope").WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "nope")
	require.ErrorIs(t, err, domain.ErrPortfolioNotFound)
}

func TestPortfolioRepository_Save(t *testing.T) {
	mockPool := newMockPool(t)
	repo := newPortfolioRepository(mockPool)

	p := testPortfolioWithBTC(t)

	mockPool.ExpectBegin()
	mockPool.ExpectExec("UPDATE portfolios").
		WithArgs("pf-1", "Main", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockPool.ExpectExec("DELETE FROM portfolio_assets").
		WithArgs("pf-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mockPool.ExpectExec("INSERT INTO portfolio_assets").
		WithArgs("pf-1", "BTC", int32(0), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "USD").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectCommit()

	require.NoError(t, repo.Save(context.Background(), p))
	assertExpectations(t, mockPool)
}

func TestPortfolioRepository_SaveMissingPortfolioRollsBack(t *testing.T) {
	mockPool := newMockPool(t)
	repo := newPortfolioRepository(mockPool)

	mockPool.ExpectBegin()
	mockPool.ExpectExec("UPDATE portfolios").
		WithArgs("pf-1", "Main", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mockPool.ExpectRollback()

	err := repo.Save(context.Background(), testPortfolioWithBTC(t))
	require.ErrorIs(t, err, domain.ErrPortfolioNotFound)
	assertExpectations(t, mockPool)
}

func TestPortfolioRepository_List(t *testing.T) {
	mockPool := newMockPool(t)
	repo := newPortfolioRepository(mockPool)

	now := time.Now().UTC()
	mockPool.ExpectQuery("FROM portfolios ORDER BY").
		WithArgs(int32(2), int32(0)).
		WillReturnRows(pgxmock.NewRows(portfolioColumns).
			AddRow("a", "First", "USD", now, now).
			AddRow("b", "Second", "EUR", now, now))

	list, err := repo.List(context.Background(), 2, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "EUR", list[1].Currency)
}

func TestTradeRepository_GetAllGroupedByAsset(t *testing.T) {
	mockPool := newMockPool(t)
	repo := &TradeRepository{db: mockPool}

	mockPool.ExpectQuery("FROM trades").
		WithArgs("pf-1").
		WillReturnRows(pgxmock.NewRows(tradeColumns).
			AddRow("t1", "BTC", "BUY", "2", "30000", "50", "USD", int64(1)).
			AddRow("t2", "BTC", "SELL", "1.5", "50000", "75", "USD", int64(3)).
			AddRow("t3", "ETH", "BUY", "1", "2000", "0", "USD", int64(2)))

	grouped, err := repo.GetAllGroupedByAsset(context.Background(), "pf-1")
	require.NoError(t, err)

	require.Len(t, grouped["BTC"], 2)
	require.Len(t, grouped["ETH"], 1)
	assert.Equal(t, domain.TradeTypeSell, grouped["BTC"][1].Type)
	assert.Equal(t, domain.Timestamp(3), grouped["BTC"][1].Timestamp)
	assert.True(t, decimal.RequireFromString("75").Equal(grouped["BTC"][1].Fee.Amount()))
}

func TestTradeRepository_GetAllGroupedByAssetRejectsBadRow(t *testing.T) {
	mockPool := newMockPool(t)
	repo := &TradeRepository{db: mockPool}

	mockPool.ExpectQuery("FROM trades").
		WithArgs("pf-1").
		WillReturnRows(pgxmock.NewRows(tradeColumns).
			AddRow("t1", "BTC", "HOLD", "2", "30000", "50", "USD", int64(1)))

	_, err := repo.GetAllGroupedByAsset(context.Background(), "pf-1")
	require.ErrorIs(t, err, domain.ErrInvalidTradeType)
}

func TestTradeRepository_Create(t *testing.T) {
	tr := testTrade(t)

	tests := []struct {
		name    string
		dbErr   error
		wantErr error
	}{
		{name: "stored"},
		{name: "duplicate", dbErr: &pgconn.PgError{Code: pgErrUniqueViolation}, wantErr: domain.ErrDuplicateTrade},
		{name: "unknown portfolio", dbErr: &pgconn.PgError{Code: pgErrForeignKeyViolation}, wantErr: domain.ErrPortfolioNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPool := newMockPool(t)
			repo := &TradeRepository{db: mockPool}

			exp := mockPool.ExpectExec("INSERT INTO trades").
				WithArgs("t1", "pf-1", "BTC", "BUY", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "USD", int64(10))
			if tt.dbErr != nil {
				exp.WillReturnError(tt.dbErr)
			} else {
				exp.WillReturnResult(pgxmock.NewResult("INSERT", 1))
			}

			err := repo.Create(context.Background(), "pf-1", tr)
			if tt.wantErr == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestDepositRepository(t *testing.T) {
	mockPool := newMockPool(t)
	repo := &DepositRepository{db: mockPool}

	mockPool.ExpectExec("INSERT INTO deposits").
		WithArgs("d1", "pf-1", "BTC", pgxmock.AnyArg(), "completed", int64(5)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectQuery("FROM deposits").
		WithArgs("pf-1").
		WillReturnRows(pgxmock.NewRows(depositColumns).
			AddRow("d1", "BTC", "1.0", "completed", int64(5)).
			AddRow("d2", "BTC", "0.3", "pending", int64(6)))

	err := repo.Create(context.Background(), "pf-1", domain.Deposit{
		ID: "d1", Asset: "BTC", Amount: decimal.RequireFromString("1.0"), Status: domain.DepositStatusCompleted, Timestamp: 5,
	})
	require.NoError(t, err)

	grouped, err := repo.GetHistoryGroupedByAsset(context.Background(), "pf-1")
	require.NoError(t, err)
	require.Len(t, grouped["BTC"], 2)
	assert.Equal(t, domain.DepositStatusPending, grouped["BTC"][1].Status)

	assertExpectations(t, mockPool)
}

func TestPriceRepository(t *testing.T) {
	mockPool := newMockPool(t)
	fixed := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	repo := &PriceRepository{db: mockPool, now: func() time.Time { return fixed }}

	mockPool.ExpectQuery("SELECT price FROM prices").
		WithArgs("BTC", "USD").
		WillReturnRows(pgxmock.NewRows([]string{"price"}).AddRow("61000.5"))
	mockPool.ExpectQuery("SELECT price FROM prices").
		WithArgs("DOGE", "USD").
		WillReturnError(pgx.ErrNoRows)
	mockPool.ExpectQuery("SELECT price FROM prices").
		WithArgs("ETH", "USD").
		WillReturnError(errors.New("connection refused"))
	mockPool.ExpectExec("INSERT INTO prices").
		WithArgs("BTC", "USD", pgxmock.AnyArg(), timeToPgTimestamptz(fixed)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	price, found, err := repo.GetPrice(context.Background(), "BTC", "USD")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, domain.MustMoney("61000.5", "USD").Equal(price))

	_, found, err = repo.GetPrice(context.Background(), "DOGE", "USD")
	require.NoError(t, err)
	assert.False(t, found)

	_, _, err = repo.GetPrice(context.Background(), "ETH", "USD")
	require.Error(t, err)

	require.NoError(t, repo.SetPrice(context.Background(), "BTC", domain.MustMoney("62000", "USD")))
	assertExpectations(t, mockPool)
}

func TestNumericRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "1", "-515", "55037.5", "0.000000000000000001", "123456789012345678901234567890.123"} {
		d := decimal.RequireFromString(s)
		if got := numericToDecimal(decimalToNumeric(d)); !got.Equal(d) {
			t.Errorf("round trip of %s gave %s", s, got)
		}
	}
}

func testPortfolioWithBTC(t *testing.T) *domain.Portfolio {
	t.Helper()

	p, err := domain.NewPortfolio("pf-1", "Main", "USD")
	require.NoError(t, err)

	asset, err := domain.NewAsset("BTC", "USD")
	require.NoError(t, err)

	holdings, err := domain.NewAssetAmount(decimal.RequireFromString("1.5"), "BTC")
	require.NoError(t, err)

	asset, err = asset.WithPosition(holdings, domain.MustMoney("55037.5", "USD"), domain.MustMoney("29887.5", "USD"), domain.MustMoney("45000", "USD"))
	require.NoError(t, err)

	p, err = p.AddAsset(asset)
	require.NoError(t, err)

	return p.Touch(time.Now().UTC())
}

func testTrade(t *testing.T) domain.Trade {
	t.Helper()

	amount, err := domain.NewAssetAmount(decimal.RequireFromString("1"), "BTC")
	require.NoError(t, err)

	tr, err := domain.NewTrade("t1", "BTC", domain.TradeTypeBuy, amount, domain.MustMoney("100", "USD"), domain.MustMoney("1", "USD"), 10)
	require.NoError(t, err)

	return tr
}
