package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LedgerRepository читает учет расходов на AI. Таблицу ведет внешний биллинг.
type LedgerRepository struct {
	db *pgxpool.Pool
}

// NewLedgerRepository создает репозиторий учета расходов.
func NewLedgerRepository(db *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// MonthToDateUSD возвращает сумму расходов начиная с указанного момента.
func (r *LedgerRepository) MonthToDateUSD(ctx context.Context, since time.Time) (float64, error) {
	var total float64
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount_usd), 0)::float8
		 FROM ai_usage_ledger
		 WHERE created_at >= $1`,
		since.UTC(),
	).Scan(&total)
	return total, err
}
