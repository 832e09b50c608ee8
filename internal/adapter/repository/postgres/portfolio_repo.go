package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/goportfolio/internal/domain"
)

const (
	insertPortfolioSQL = `INSERT INTO portfolios (id, name, currency, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)`

	selectPortfolioSQL = `SELECT id, name, currency, created_at, updated_at
FROM portfolios WHERE id = $1`

	listPortfoliosSQL = `SELECT id, name, currency, created_at, updated_at
FROM portfolios ORDER BY created_at, id LIMIT $1 OFFSET $2`

	updatePortfolioSQL = `UPDATE portfolios SET name = $2, updated_at = $3 WHERE id = $1`

	selectAssetsSQL = `SELECT symbol, holdings, cost_basis, realized_pnl, current_price, currency
FROM portfolio_assets WHERE portfolio_id = $1 ORDER BY position`

	deleteAssetsSQL = `DELETE FROM portfolio_assets WHERE portfolio_id = $1`

	insertAssetSQL = `INSERT INTO portfolio_assets
(portfolio_id, symbol, position, holdings, cost_basis, realized_pnl, current_price, currency)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
)

// PortfolioRepository implements usecase.PortfolioRepository.
type PortfolioRepository struct {
	db dbtx
	tx *TxManager
}

// NewPortfolioRepository creates a new PortfolioRepository.
func NewPortfolioRepository(pool *pgxpool.Pool) *PortfolioRepository {
	return newPortfolioRepository(pool)
}

func newPortfolioRepository(pool pgxPool) *PortfolioRepository {
	return &PortfolioRepository{db: pool, tx: newTxManagerWithPool(pool)}
}

// Create inserts an empty portfolio.
func (r *PortfolioRepository) Create(ctx context.Context, p *domain.Portfolio) error {
	_, err := r.db.Exec(ctx, insertPortfolioSQL,
		p.ID, p.Name, p.Currency,
		timeToPgTimestamptz(p.CreatedAt), timeToPgTimestamptz(p.UpdatedAt))
	return err
}

// GetByID loads a portfolio with its assets in stored order.
func (r *PortfolioRepository) GetByID(ctx context.Context, id string) (*domain.Portfolio, error) {
	p, err := scanPortfolio(r.db.QueryRow(ctx, selectPortfolioSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPortfolioNotFound
		}
		return nil, err
	}

	return r.loadAssets(ctx, p)
}

// List lists portfolios with pagination. Assets are not loaded.
func (r *PortfolioRepository) List(ctx context.Context, limit, offset int) ([]*domain.Portfolio, error) {
	rows, err := r.db.Query(ctx, listPortfoliosSQL, int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	portfolios := make([]*domain.Portfolio, 0, limit)
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, err
		}
		portfolios = append(portfolios, p)
	}

	return portfolios, rows.Err()
}

// Save replaces the stored assets of a portfolio with the snapshot's assets
// in a single transaction.
func (r *PortfolioRepository) Save(ctx context.Context, p *domain.Portfolio) error {
	return r.tx.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, updatePortfolioSQL, p.ID, p.Name, timeToPgTimestamptz(p.UpdatedAt))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrPortfolioNotFound
		}

		if _, err := tx.Exec(ctx, deleteAssetsSQL, p.ID); err != nil {
			return err
		}

		for i, a := range p.Assets() {
			_, err := tx.Exec(ctx, insertAssetSQL,
				p.ID, a.Symbol.String(), int32(i),
				decimalToNumeric(a.Holdings.Amount()),
				decimalToNumeric(a.CostBasis.Amount()),
				decimalToNumeric(a.RealizedPnL.Amount()),
				decimalToNumeric(a.CurrentPrice.Amount()),
				a.Currency(),
			)
			if err != nil {
				return fmt.Errorf("insert asset %s: %w", a.Symbol, err)
			}
		}

		return nil
	})
}

func (r *PortfolioRepository) loadAssets(ctx context.Context, p *domain.Portfolio) (*domain.Portfolio, error) {
	rows, err := r.db.Query(ctx, selectAssetsSQL, p.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}

		p, err = p.AddAsset(asset)
		if err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return p, nil
}

func scanPortfolio(row pgx.Row) (*domain.Portfolio, error) {
	var (
		id, name, currency   string
		createdAt, updatedAt time.Time
	)

	if err := row.Scan(&id, &name, &currency, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	p, err := domain.NewPortfolio(id, name, currency)
	if err != nil {
		return nil, fmt.Errorf("portfolio %s: %w", id, err)
	}

	p.CreatedAt = createdAt.UTC()
	p.UpdatedAt = updatedAt.UTC()
	return p, nil
}

func scanAsset(row pgx.Row) (domain.Asset, error) {
	var (
		symbol, currency                    string
		holdings, cost, realized, priceAmt pgtype.Numeric
	)

	if err := row.Scan(&symbol, &holdings, &cost, &realized, &priceAmt, &currency); err != nil {
		return domain.Asset{}, err
	}

	sym := domain.AssetSymbol(symbol)

	asset, err := domain.NewAsset(sym, currency)
	if err != nil {
		return domain.Asset{}, err
	}

	amount, err := domain.NewAssetAmount(numericToDecimal(holdings), sym)
	if err != nil {
		return domain.Asset{}, err
	}

	costBasis, err := domain.NewMoney(numericToDecimal(cost), currency)
	if err != nil {
		return domain.Asset{}, err
	}

	realizedPnL, err := domain.NewMoney(numericToDecimal(realized), currency)
	if err != nil {
		return domain.Asset{}, err
	}

	price, err := domain.NewMoney(numericToDecimal(priceAmt), currency)
	if err != nil {
		return domain.Asset{}, err
	}

	return asset.WithPosition(amount, costBasis, realizedPnL, price)
}
