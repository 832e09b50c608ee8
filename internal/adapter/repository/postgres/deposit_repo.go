package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/goportfolio/internal/domain"
)

const (
	insertDepositSQL = `INSERT INTO deposits (id, portfolio_id, asset, amount, status, deposited_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	selectDepositsSQL = `SELECT id, asset, amount, status, deposited_at
FROM deposits WHERE portfolio_id = $1 ORDER BY asset, seq`
)

// DepositRepository implements usecase.DepositRepository.
type DepositRepository struct {
	db dbtx
}

// NewDepositRepository creates a new DepositRepository.
func NewDepositRepository(pool *pgxpool.Pool) *DepositRepository {
	return &DepositRepository{db: pool}
}

// Create stores an inbound transfer.
func (r *DepositRepository) Create(ctx context.Context, portfolioID string, d domain.Deposit) error {
	_, err := r.db.Exec(ctx, insertDepositSQL,
		d.ID, portfolioID, d.Asset.String(),
		decimalToNumeric(d.Amount),
		string(d.Status),
		d.Timestamp.Millis(),
	)

	switch pgErrorCode(err) {
	case pgErrUniqueViolation:
		return fmt.Errorf("%w: %s", domain.ErrDuplicateDeposit, d.ID)
	case pgErrForeignKeyViolation:
		return domain.ErrPortfolioNotFound
	}

	return err
}

// GetHistoryGroupedByAsset returns every deposit of a portfolio keyed by
// asset, in insertion order. Pending and failed deposits are included; the
// FIFO calculation decides what counts.
func (r *DepositRepository) GetHistoryGroupedByAsset(ctx context.Context, portfolioID string) (map[domain.AssetSymbol][]domain.Deposit, error) {
	rows, err := r.db.Query(ctx, selectDepositsSQL, portfolioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	grouped := make(map[domain.AssetSymbol][]domain.Deposit)

	for rows.Next() {
		var (
			id, asset, status string
			amount            pgtype.Numeric
			depositedAt       int64
		)

		if err := rows.Scan(&id, &asset, &amount, &status, &depositedAt); err != nil {
			return nil, err
		}

		st, err := domain.ParseDepositStatus(status)
		if err != nil {
			return nil, fmt.Errorf("deposit %s: %w", id, err)
		}

		d := domain.Deposit{
			ID:        id,
			Asset:     domain.AssetSymbol(asset),
			Amount:    numericToDecimal(amount),
			Status:    st,
			Timestamp: domain.Timestamp(depositedAt),
		}
		grouped[d.Asset] = append(grouped[d.Asset], d)
	}

	return grouped, rows.Err()
}
