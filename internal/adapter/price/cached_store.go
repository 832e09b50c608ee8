// Package price serves current asset prices through a read-through cache.
package price

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/goportfolio/internal/domain"
	"github.com/iho/goportfolio/internal/usecase"
)

// Cache lookup results reported to the metrics recorder.
const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultError = "error"
)

// CacheRecorder receives cache lookup outcomes.
type CacheRecorder interface {
	PriceCacheResult(result string)
}

type nopRecorder struct{}

func (nopRecorder) PriceCacheResult(string) {}

// CachedStore is a usecase.PriceStore that answers from cache and falls back
// to the wrapped store. Cache failures degrade to a direct lookup.
type CachedStore struct {
	next    usecase.PriceStore
	cache   usecase.Cache
	ttl     time.Duration
	metrics CacheRecorder
	log     zerolog.Logger
}

// NewCachedStore wraps next with cache. metrics may be nil.
func NewCachedStore(next usecase.PriceStore, cache usecase.Cache, ttl time.Duration, metrics CacheRecorder, log zerolog.Logger) *CachedStore {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &CachedStore{
		next:    next,
		cache:   cache,
		ttl:     ttl,
		metrics: metrics,
		log:     log.With().Str("component", "price_cache").Logger(),
	}
}

// GetPrice implements usecase.PriceProvider. Unknown prices are not cached.
func (s *CachedStore) GetPrice(ctx context.Context, symbol domain.AssetSymbol, currency string) (domain.Money, bool, error) {
	key := cacheKey(symbol, currency)

	raw, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		if m, ok := s.decode(raw, currency); ok {
			s.metrics.PriceCacheResult(ResultHit)
			return m, true, nil
		}
		s.metrics.PriceCacheResult(ResultError)
	case errors.Is(err, usecase.ErrCacheMiss):
		s.metrics.PriceCacheResult(ResultMiss)
	default:
		s.metrics.PriceCacheResult(ResultError)
		s.log.Warn().Err(err).Str("asset", symbol.String()).Msg("price cache read failed")
	}

	m, found, err := s.next.GetPrice(ctx, symbol, currency)
	if err != nil || !found {
		return m, found, err
	}

	if err := s.cache.Set(ctx, key, m.Amount().String(), s.ttl); err != nil {
		s.log.Warn().Err(err).Str("asset", symbol.String()).Msg("price cache write failed")
	}

	return m, true, nil
}

// SetPrice writes through to the wrapped store and drops the cached entry.
func (s *CachedStore) SetPrice(ctx context.Context, symbol domain.AssetSymbol, price domain.Money) error {
	if err := s.next.SetPrice(ctx, symbol, price); err != nil {
		return err
	}

	if err := s.cache.Delete(ctx, cacheKey(symbol, price.Currency())); err != nil {
		s.log.Warn().Err(err).Str("asset", symbol.String()).Msg("price cache invalidation failed")
	}

	return nil
}

func (s *CachedStore) decode(raw, currency string) (domain.Money, bool) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		s.log.Warn().Err(err).Str("value", raw).Msg("discarding malformed cached price")
		return domain.Money{}, false
	}

	m, err := domain.NewMoney(d, currency)
	if err != nil {
		return domain.Money{}, false
	}

	return m, true
}

func cacheKey(symbol domain.AssetSymbol, currency string) string {
	return "price:" + symbol.String() + ":" + currency
}
