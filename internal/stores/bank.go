package stores

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// BankRepository reads live balances and transaction flows
type BankRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewBankRepository creates a new bank repository
func NewBankRepository(db *sql.DB, log zerolog.Logger) *BankRepository {
	return &BankRepository{
		db:  db,
		log: log.With().Str("repo", "bank").Logger(),
	}
}

// CurrentBalance returns the summed live balance across all of the
// organization's accounts
func (r *BankRepository) CurrentBalance(orgID string) (float64, error) {
	var balance sql.NullFloat64
	err := r.db.QueryRow(`SELECT SUM(balance) FROM bank_accounts WHERE org_id = ?`, orgID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("failed to sum account balances: %w", err)
	}
	if !balance.Valid {
		return 0, nil
	}
	return balance.Float64, nil
}

// NetFlow returns the signed sum of transactions posted in [start, end]
// (inflows positive, outflows negative)
func (r *BankRepository) NetFlow(orgID string, start, end time.Time) (float64, error) {
	var flow sql.NullFloat64
	err := r.db.QueryRow(`
		SELECT SUM(amount) FROM bank_transactions
		WHERE org_id = ? AND posted_at >= ? AND posted_at <= ?`,
		orgID, start.Format("2006-01-02"), end.Format("2006-01-02")).Scan(&flow)
	if err != nil {
		return 0, fmt.Errorf("failed to sum transaction flow: %w", err)
	}
	if !flow.Valid {
		return 0, nil
	}
	return flow.Float64, nil
}
