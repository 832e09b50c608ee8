package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/goportfolio/internal/domain"
)

const (
	insertTradeSQL = `INSERT INTO trades
(id, portfolio_id, asset, side, amount, price, fee, currency, executed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	selectTradesSQL = `SELECT id, asset, side, amount, price, fee, currency, executed_at
FROM trades WHERE portfolio_id = $1 ORDER BY asset, executed_at, seq`
)

// TradeRepository implements usecase.TradeRepository.
type TradeRepository struct {
	db dbtx
}

// NewTradeRepository creates a new TradeRepository.
func NewTradeRepository(pool *pgxpool.Pool) *TradeRepository {
	return &TradeRepository{db: pool}
}

// Create stores an executed trade.
func (r *TradeRepository) Create(ctx context.Context, portfolioID string, t domain.Trade) error {
	_, err := r.db.Exec(ctx, insertTradeSQL,
		t.ID, portfolioID, t.Asset.String(), string(t.Type),
		decimalToNumeric(t.Amount.Amount()),
		decimalToNumeric(t.Price.Amount()),
		decimalToNumeric(t.Fee.Amount()),
		t.Price.Currency(),
		t.Timestamp.Millis(),
	)

	switch pgErrorCode(err) {
	case pgErrUniqueViolation:
		return fmt.Errorf("%w: %s", domain.ErrDuplicateTrade, t.ID)
	case pgErrForeignKeyViolation:
		return domain.ErrPortfolioNotFound
	}

	return err
}

// GetAllGroupedByAsset returns every trade of a portfolio keyed by asset, in
// execution order.
func (r *TradeRepository) GetAllGroupedByAsset(ctx context.Context, portfolioID string) (map[domain.AssetSymbol][]domain.Trade, error) {
	rows, err := r.db.Query(ctx, selectTradesSQL, portfolioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	grouped := make(map[domain.AssetSymbol][]domain.Trade)

	for rows.Next() {
		var (
			id, asset, side, currency string
			amount, price, fee        pgtype.Numeric
			executedAt                int64
		)

		if err := rows.Scan(&id, &asset, &side, &amount, &price, &fee, &currency, &executedAt); err != nil {
			return nil, err
		}

		t, err := rowToTrade(id, asset, side, currency, amount, price, fee, executedAt)
		if err != nil {
			return nil, fmt.Errorf("trade %s: %w", id, err)
		}

		grouped[t.Asset] = append(grouped[t.Asset], t)
	}

	return grouped, rows.Err()
}

func rowToTrade(id, asset, side, currency string, amount, price, fee pgtype.Numeric, executedAt int64) (domain.Trade, error) {
	sym := domain.AssetSymbol(asset)

	typ, err := domain.ParseTradeType(side)
	if err != nil {
		return domain.Trade{}, err
	}

	qty, err := domain.NewAssetAmount(numericToDecimal(amount), sym)
	if err != nil {
		return domain.Trade{}, err
	}

	p, err := domain.NewMoney(numericToDecimal(price), currency)
	if err != nil {
		return domain.Trade{}, err
	}

	f, err := domain.NewMoney(numericToDecimal(fee), currency)
	if err != nil {
		return domain.Trade{}, err
	}

	ts, err := domain.NewTimestamp(executedAt)
	if err != nil {
		return domain.Trade{}, err
	}

	return domain.NewTrade(id, sym, typ, qty, p, f, ts)
}
