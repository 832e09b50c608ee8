package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAsset(t *testing.T, symbol AssetSymbol, holdings, cost, realized, price string) Asset {
	t.Helper()

	a, err := NewAsset(symbol, "USD")
	require.NoError(t, err)

	a, err = a.WithPosition(mustAmount(t, holdings, symbol), MustMoney(cost, "USD"), MustMoney(realized, "USD"), MustMoney(price, "USD"))
	require.NoError(t, err)

	return a
}

func TestAsset_DerivedGetters(t *testing.T) {
	a := newTestAsset(t, "BTC", "1.5", "55037.5", "29887.5", "45000")

	assert.True(t, a.CurrentValue().Equal(MustMoney("67500", "USD")))
	assert.True(t, a.UnrealizedPnL().Equal(MustMoney("12462.5", "USD")))
	assert.True(t, a.TotalPnL().Equal(MustMoney("42350", "USD")))

	pct := a.ReturnPercentage(28)
	assert.Equal(t, "76.95", pct.Round(2).String())
}

func TestAsset_NegativeUnrealized(t *testing.T) {
	a := newTestAsset(t, "ETH", "2", "5000", "-100", "2000")

	assert.True(t, a.UnrealizedPnL().Equal(MustMoney("-1000", "USD")))
	assert.True(t, a.TotalPnL().Equal(MustMoney("-1100", "USD")))
	assert.True(t, a.ReturnPercentage(28).Equal(decimal.NewFromInt(-22)))
}

func TestAsset_ZeroCostBasisReturnsZeroPercent(t *testing.T) {
	a := newTestAsset(t, "BTC", "0.5", "0", "24975", "60000")

	assert.True(t, a.ReturnPercentage(28).IsZero())
}

func TestAsset_WithPositionValidates(t *testing.T) {
	a, err := NewAsset("BTC", "USD")
	require.NoError(t, err)

	_, err = a.WithPosition(mustAmount(t, "1", "ETH"), MustMoney("1", "USD"), MustMoney("0", "USD"), MustMoney("1", "USD"))
	assert.ErrorIs(t, err, ErrAssetMismatch)

	_, err = a.WithPosition(mustAmount(t, "1", "BTC"), MustMoney("1", "EUR"), MustMoney("0", "USD"), MustMoney("1", "USD"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestAsset_WithPositionLeavesOriginal(t *testing.T) {
	a := newTestAsset(t, "BTC", "1", "100", "0", "100")
	b, err := a.WithPosition(mustAmount(t, "2", "BTC"), MustMoney("300", "USD"), MustMoney("5", "USD"), MustMoney("150", "USD"))
	require.NoError(t, err)

	assert.True(t, a.Holdings.Amount().Equal(decimal.NewFromInt(1)))
	assert.True(t, b.Holdings.Amount().Equal(decimal.NewFromInt(2)))
}
