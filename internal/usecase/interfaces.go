package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/iho/goportfolio/internal/domain"
)

// PortfolioRepository defines data access for portfolios and their assets.
type PortfolioRepository interface {
	Create(ctx context.Context, portfolio *domain.Portfolio) error
	GetByID(ctx context.Context, id string) (*domain.Portfolio, error)
	Save(ctx context.Context, portfolio *domain.Portfolio) error
	List(ctx context.Context, limit, offset int) ([]*domain.Portfolio, error)
}

// TradeRepository defines data access for executed trades.
type TradeRepository interface {
	Create(ctx context.Context, portfolioID string, trade domain.Trade) error
	GetAllGroupedByAsset(ctx context.Context, portfolioID string) (map[domain.AssetSymbol][]domain.Trade, error)
}

// DepositRepository defines data access for inbound transfer history.
type DepositRepository interface {
	Create(ctx context.Context, portfolioID string, deposit domain.Deposit) error
	GetHistoryGroupedByAsset(ctx context.Context, portfolioID string) (map[domain.AssetSymbol][]domain.Deposit, error)
}

// PriceProvider returns the current price of an asset in currency.
// found is false when no price is known; that is not an error.
type PriceProvider interface {
	GetPrice(ctx context.Context, symbol domain.AssetSymbol, currency string) (price domain.Money, found bool, err error)
}

// PriceStore is a PriceProvider that also accepts price updates.
type PriceStore interface {
	PriceProvider
	SetPrice(ctx context.Context, symbol domain.AssetSymbol, price domain.Money) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier retries an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// MetricsRecorder receives recalculation telemetry.
type MetricsRecorder interface {
	RecalculationCompleted(status string, duration time.Duration)
	AssetSkipped(reason string)
	OversellObserved(action string)
}

// ErrCacheMiss is returned by Cache.Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Cache defines key/value caching operations.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
