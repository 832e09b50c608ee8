package mocks

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/iho/goportfolio/internal/domain"
	"github.com/iho/goportfolio/internal/usecase"
)

// FakePortfolioRepository is an in-memory PortfolioRepository.
type FakePortfolioRepository struct {
	mu         sync.RWMutex
	portfolios map[string]*domain.Portfolio
	order      []string
	saves      int

	SaveFunc func(ctx context.Context, portfolio *domain.Portfolio) error
}

func NewFakePortfolioRepository(portfolios ...*domain.Portfolio) *FakePortfolioRepository {
	r := &FakePortfolioRepository{portfolios: make(map[string]*domain.Portfolio)}
	for _, p := range portfolios {
		r.portfolios[p.ID] = p
		r.order = append(r.order, p.ID)
	}
	return r
}

func (r *FakePortfolioRepository) Create(ctx context.Context, portfolio *domain.Portfolio) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.portfolios[portfolio.ID] = portfolio
	r.order = append(r.order, portfolio.ID)
	return nil
}

func (r *FakePortfolioRepository) GetByID(ctx context.Context, id string) (*domain.Portfolio, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.portfolios[id]; ok {
		return p, nil
	}
	return nil, domain.ErrPortfolioNotFound
}

func (r *FakePortfolioRepository) Save(ctx context.Context, portfolio *domain.Portfolio) error {
	if r.SaveFunc != nil {
		if err := r.SaveFunc(ctx, portfolio); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.portfolios[portfolio.ID]; !ok {
		return domain.ErrPortfolioNotFound
	}
	r.portfolios[portfolio.ID] = portfolio
	r.saves++
	return nil
}

func (r *FakePortfolioRepository) List(ctx context.Context, limit, offset int) ([]*domain.Portfolio, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Portfolio
	for i := offset; i < len(r.order) && len(out) < limit; i++ {
		out = append(out, r.portfolios[r.order[i]])
	}
	return out, nil
}

// Saves returns how many saves succeeded.
func (r *FakePortfolioRepository) Saves() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.saves
}

// FakeTradeRepository serves trade history per portfolio.
type FakeTradeRepository struct {
	mu     sync.Mutex
	Trades map[string]map[domain.AssetSymbol][]domain.Trade
	Err    error
}

func (r *FakeTradeRepository) Create(ctx context.Context, portfolioID string, trade domain.Trade) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Trades == nil {
		r.Trades = make(map[string]map[domain.AssetSymbol][]domain.Trade)
	}
	if r.Trades[portfolioID] == nil {
		r.Trades[portfolioID] = make(map[domain.AssetSymbol][]domain.Trade)
	}
	r.Trades[portfolioID][trade.Asset] = append(r.Trades[portfolioID][trade.Asset], trade)
	return nil
}

func (r *FakeTradeRepository) GetAllGroupedByAsset(ctx context.Context, portfolioID string) (map[domain.AssetSymbol][]domain.Trade, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Trades[portfolioID], nil
}

// FakeDepositRepository serves deposit history per portfolio.
type FakeDepositRepository struct {
	mu       sync.Mutex
	Deposits map[string]map[domain.AssetSymbol][]domain.Deposit
	Err      error
}

func (r *FakeDepositRepository) Create(ctx context.Context, portfolioID string, deposit domain.Deposit) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Deposits == nil {
		r.Deposits = make(map[string]map[domain.AssetSymbol][]domain.Deposit)
	}
	if r.Deposits[portfolioID] == nil {
		r.Deposits[portfolioID] = make(map[domain.AssetSymbol][]domain.Deposit)
	}
	r.Deposits[portfolioID][deposit.Asset] = append(r.Deposits[portfolioID][deposit.Asset], deposit)
	return nil
}

func (r *FakeDepositRepository) GetHistoryGroupedByAsset(ctx context.Context, portfolioID string) (map[domain.AssetSymbol][]domain.Deposit, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Deposits[portfolioID], nil
}

// FakePriceProvider answers from a fixed price table. Symbols in Errors fail.
type FakePriceProvider struct {
	mu     sync.Mutex
	Prices map[domain.AssetSymbol]domain.Money
	Errors map[domain.AssetSymbol]error
	calls  int
}

func (p *FakePriceProvider) GetPrice(ctx context.Context, symbol domain.AssetSymbol, currency string) (domain.Money, bool, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	if err := p.Errors[symbol]; err != nil {
		return domain.Money{}, false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	price, ok := p.Prices[symbol]
	if ok && price.Currency() != currency {
		return domain.Money{}, false, nil
	}
	return price, ok, nil
}

func (p *FakePriceProvider) SetPrice(ctx context.Context, symbol domain.AssetSymbol, price domain.Money) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Prices == nil {
		p.Prices = make(map[domain.AssetSymbol]domain.Money)
	}
	p.Prices[symbol] = price
	return nil
}

// Calls returns how many lookups were made.
func (p *FakePriceProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// SequenceIDGenerator returns prefix-1, prefix-2, ...
type SequenceIDGenerator struct {
	Prefix string

	mu sync.Mutex
	n  int
}

func (g *SequenceIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return g.Prefix + "-" + strconv.Itoa(g.n)
}

// RecordingMetrics counts every MetricsRecorder call by label.
type RecordingMetrics struct {
	mu            sync.Mutex
	Recalculation map[string]int
	Skipped       map[string]int
	Oversells     map[string]int
}

func NewRecordingMetrics() *RecordingMetrics {
	return &RecordingMetrics{
		Recalculation: make(map[string]int),
		Skipped:       make(map[string]int),
		Oversells:     make(map[string]int),
	}
}

func (m *RecordingMetrics) RecalculationCompleted(status string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Recalculation[status]++
}

func (m *RecordingMetrics) AssetSkipped(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Skipped[reason]++
}

func (m *RecordingMetrics) OversellObserved(action string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Oversells[action]++
}

// FakeCache is a map-backed Cache that ignores TTLs.
type FakeCache struct {
	mu   sync.Mutex
	data map[string]string
}

func NewFakeCache() *FakeCache {
	return &FakeCache{data: make(map[string]string)}
}

func (c *FakeCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return "", usecase.ErrCacheMiss
	}
	return v, nil
}

func (c *FakeCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *FakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}
