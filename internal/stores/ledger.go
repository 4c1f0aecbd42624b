package stores

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Statuses that count as real money. Draft/pending/voided records are
// invisible to the analytics core.
var (
	expenseStatuses = []string{"approved", "paid"}
	revenueStatuses = []string{"received"}
)

// LedgerRepository aggregates raw ledger records (expenses and revenue
// entries) into flat (category, account_ref, amount) rows over a date
// window. All further grouping happens in the analytics core.
type LedgerRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *sql.DB, log zerolog.Logger) *LedgerRepository {
	return &LedgerRepository{
		db:  db,
		log: log.With().Str("repo", "ledger").Logger(),
	}
}

// SumByCategory returns one aggregate per (category, account_ref) pair
// over [start, end], recomputed from the raw records on every call
func (r *LedgerRepository) SumByCategory(orgID string, start, end time.Time, kind RecordKind) ([]ActualAggregate, error) {
	table, dateCol, statuses := "expenses", "incurred_at", expenseStatuses
	if kind == RecordKindRevenue {
		table, dateCol, statuses = "revenue_entries", "received_at", revenueStatuses
	}

	query := fmt.Sprintf(`
		SELECT category, COALESCE(account_ref, ''), SUM(amount)
		FROM %s
		WHERE org_id = ?
		  AND %s >= ? AND %s <= ?
		  AND status IN (%s)
		GROUP BY category, account_ref`,
		table, dateCol, dateCol, placeholders(len(statuses)))

	args := []interface{}{orgID, start.Format("2006-01-02"), end.Format("2006-01-02")}
	for _, s := range statuses {
		args = append(args, s)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate %s: %w", table, err)
	}
	defer rows.Close()

	var aggregates []ActualAggregate
	for rows.Next() {
		agg := ActualAggregate{PeriodStart: start, PeriodEnd: end}
		var amount sql.NullFloat64
		if err := rows.Scan(&agg.Category, &agg.AccountRef, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate: %w", err)
		}
		if amount.Valid {
			agg.Amount = amount.Float64
		}
		aggregates = append(aggregates, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating aggregates: %w", err)
	}

	return aggregates, nil
}

// SumTotal returns the summed amount over [start, end] for the record
// kind, ignoring category boundaries
func (r *LedgerRepository) SumTotal(orgID string, start, end time.Time, kind RecordKind) (float64, error) {
	aggregates, err := r.SumByCategory(orgID, start, end, kind)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, agg := range aggregates {
		total += agg.Amount
	}
	return total, nil
}

func placeholders(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ", "
		}
		out += "?"
	}
	return out
}
