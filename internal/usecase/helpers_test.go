package usecase_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/goportfolio/internal/domain"
	"github.com/iho/goportfolio/internal/usecase"
)

func newFIFO() *usecase.FIFOCalculationService {
	return usecase.NewFIFOCalculationService(usecase.DefaultCalculationConfig(), zerolog.Nop())
}

func newCalculator() *usecase.PortfolioCalculationService {
	return usecase.NewPortfolioCalculationService(newFIFO(), usecase.DefaultCalculationConfig(), zerolog.Nop())
}

func usd(amount string) domain.Money {
	return domain.MustMoney(amount, "USD")
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func trade(t *testing.T, id string, asset domain.AssetSymbol, typ domain.TradeType, amount, price, fee string, ts int64) domain.Trade {
	t.Helper()

	tr, err := domain.NewTrade(id, asset, typ, mustAmount(t, amount, asset), usd(price), usd(fee), domain.Timestamp(ts))
	require.NoError(t, err)

	return tr
}

func buy(t *testing.T, id string, amount, price, fee string, ts int64) domain.Trade {
	t.Helper()
	return trade(t, id, "BTC", domain.TradeTypeBuy, amount, price, fee, ts)
}

func sell(t *testing.T, id string, amount, price, fee string, ts int64) domain.Trade {
	t.Helper()
	return trade(t, id, "BTC", domain.TradeTypeSell, amount, price, fee, ts)
}

func deposit(asset domain.AssetSymbol, amount string, status domain.DepositStatus, ts int64) domain.Deposit {
	return domain.Deposit{
		Asset:     asset,
		Amount:    dec(amount),
		Status:    status,
		Timestamp: domain.Timestamp(ts),
	}
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "%s: expected %s, got %s", field, want, got)
}

type expectedResult struct {
	amount, cost, value, realised, unrealised, totalBuys string
}

func requireResult(t *testing.T, want expectedResult, got *usecase.FIFOResult) {
	t.Helper()

	requireDecimal(t, want.amount, got.Amount, "amount")
	requireDecimal(t, want.cost, got.Cost, "cost")
	requireDecimal(t, want.value, got.Value, "value")
	requireDecimal(t, want.realised, got.Realised, "realised")
	requireDecimal(t, want.unrealised, got.Unrealised, "unrealised")
	requireDecimal(t, want.totalBuys, got.TotalBuys, "total_buys")
}

func mustAmount(t *testing.T, amount string, asset domain.AssetSymbol) domain.AssetAmount {
	t.Helper()
	a, err := domain.NewAssetAmount(dec(amount), asset)
	require.NoError(t, err)
	return a
}
