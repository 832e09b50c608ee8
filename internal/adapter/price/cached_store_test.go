package price_test

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/goportfolio/internal/adapter/price"
	"github.com/iho/goportfolio/internal/adapter/repository/memory"
	"github.com/iho/goportfolio/internal/adapter/repository/redis"
	"github.com/iho/goportfolio/internal/domain"
	"github.com/iho/goportfolio/internal/usecase"
	"github.com/iho/goportfolio/internal/usecase/mocks"
)

type countingRecorder map[string]int

func (c countingRecorder) PriceCacheResult(result string) { c[result]++ }

func TestCachedStore_ReadThroughWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	defer client.Close()

	backing := &mocks.FakePriceProvider{Prices: map[domain.AssetSymbol]domain.Money{
		"BTC": domain.MustMoney("61000.5", "USD"),
	}}
	rec := countingRecorder{}
	store := price.NewCachedStore(backing, redis.NewCache(client), time.Minute, rec, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		m, found, err := store.GetPrice(ctx, "BTC", "USD")
		require.NoError(t, err)
		require.True(t, found)
		assert.True(t, m.Equal(domain.MustMoney("61000.5", "USD")))
	}

	assert.Equal(t, 1, backing.Calls())
	assert.Equal(t, 1, rec[price.ResultMiss])
	assert.Equal(t, 2, rec[price.ResultHit])

	mr.FastForward(2 * time.Minute)
	_, _, err := store.GetPrice(ctx, "BTC", "USD")
	require.NoError(t, err)
	assert.Equal(t, 2, backing.Calls(), "expired entry must be reloaded")
}

func TestCachedStore_UnknownPriceNotCached(t *testing.T) {
	backing := &mocks.FakePriceProvider{}
	cache := memory.NewCache(time.Minute, time.Minute)
	store := price.NewCachedStore(backing, cache, time.Minute, nil, zerolog.Nop())

	_, found, err := store.GetPrice(context.Background(), "DOGE", "USD")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, cache.Len())
}

func TestCachedStore_SetPriceInvalidates(t *testing.T) {
	backing := &mocks.FakePriceProvider{Prices: map[domain.AssetSymbol]domain.Money{
		"ETH": domain.MustMoney("2000", "USD"),
	}}
	store := price.NewCachedStore(backing, memory.NewCache(time.Minute, time.Minute), time.Minute, nil, zerolog.Nop())
	ctx := context.Background()

	_, _, err := store.GetPrice(ctx, "ETH", "USD")
	require.NoError(t, err)

	require.NoError(t, store.SetPrice(ctx, "ETH", domain.MustMoney("2100", "USD")))

	m, _, err := store.GetPrice(ctx, "ETH", "USD")
	require.NoError(t, err)
	assert.True(t, m.Equal(domain.MustMoney("2100", "USD")))
}

func TestCachedStore_CacheFailureFallsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCache(ctrl)
	backing := mocks.NewMockPriceStore(ctrl)

	cache.EXPECT().Get(gomock.Any(), "price:BTC:USD").Return("", errors.New("connection refused"))
	backing.EXPECT().GetPrice(gomock.Any(), domain.AssetSymbol("BTC"), "USD").Return(domain.MustMoney("1", "USD"), true, nil)
	cache.EXPECT().Set(gomock.Any(), "price:BTC:USD", "1", time.Minute).Return(errors.New("connection refused"))

	rec := countingRecorder{}
	store := price.NewCachedStore(backing, cache, time.Minute, rec, zerolog.Nop())

	m, found, err := store.GetPrice(context.Background(), "BTC", "USD")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "1", m.Amount().String())
	assert.Equal(t, 1, rec[price.ResultError])
}

func TestCachedStore_MalformedEntryReloads(t *testing.T) {
	cache := memory.NewCache(time.Minute, time.Minute)
	require.NoError(t, cache.Set(context.Background(), "price:BTC:USD", "not-a-number", time.Minute))

	backing := &mocks.FakePriceProvider{Prices: map[domain.AssetSymbol]domain.Money{
		"BTC": domain.MustMoney("5", "USD"),
	}}
	store := price.NewCachedStore(backing, cache, time.Minute, nil, zerolog.Nop())

	m, found, err := store.GetPrice(context.Background(), "BTC", "USD")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "5", m.Amount().String())

	raw, err := cache.Get(context.Background(), "price:BTC:USD")
	require.NoError(t, err)
	assert.Equal(t, "5", raw)
}

func TestCachedStore_BackingErrorPropagates(t *testing.T) {
	boom := errors.New("db down")
	backing := &mocks.FakePriceProvider{Errors: map[domain.AssetSymbol]error{"BTC": boom}}
	store := price.NewCachedStore(backing, memory.NewCache(time.Minute, time.Minute), time.Minute, nil, zerolog.Nop())

	_, _, err := store.GetPrice(context.Background(), "BTC", "USD")
	require.ErrorIs(t, err, boom)
}

var _ usecase.PriceStore = (*price.CachedStore)(nil)
