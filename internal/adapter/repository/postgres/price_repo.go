package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/goportfolio/internal/domain"
)

const (
	selectPriceSQL = `SELECT price FROM prices WHERE symbol = $1 AND currency = $2`

	upsertPriceSQL = `INSERT INTO prices (symbol, currency, price, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (symbol, currency) DO UPDATE SET price = EXCLUDED.price, updated_at = EXCLUDED.updated_at`
)

// PriceRepository implements usecase.PriceStore on the prices table.
type PriceRepository struct {
	db  dbtx
	now func() time.Time
}

// NewPriceRepository creates a new PriceRepository.
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{db: pool, now: time.Now}
}

// GetPrice returns the last recorded price of symbol in currency.
func (r *PriceRepository) GetPrice(ctx context.Context, symbol domain.AssetSymbol, currency string) (domain.Money, bool, error) {
	var price pgtype.Numeric

	err := r.db.QueryRow(ctx, selectPriceSQL, symbol.String(), currency).Scan(&price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Money{}, false, nil
		}
		return domain.Money{}, false, err
	}

	m, err := domain.NewMoney(numericToDecimal(price), currency)
	if err != nil {
		return domain.Money{}, false, err
	}

	return m, true, nil
}

// SetPrice records the current price of symbol.
func (r *PriceRepository) SetPrice(ctx context.Context, symbol domain.AssetSymbol, price domain.Money) error {
	_, err := r.db.Exec(ctx, upsertPriceSQL,
		symbol.String(), price.Currency(),
		decimalToNumeric(price.Amount()),
		timeToPgTimestamptz(r.now().UTC()),
	)
	return err
}
