package stores

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// CustomerRepository reads customer records for the unit economics
// engine
type CustomerRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *sql.DB, log zerolog.Logger) *CustomerRepository {
	return &CustomerRepository{
		db:  db,
		log: log.With().Str("repo", "customers").Logger(),
	}
}

// Find returns customers matching the filter, ordered by creation date
func (r *CustomerRepository) Find(orgID string, filter CustomerFilter) ([]Customer, error) {
	query := `
		SELECT id, name, created_at, subscription_status, subscription_start,
		       subscription_end, monthly_value, lifetime_revenue,
		       first_purchase_at, last_activity_at
		FROM customers
		WHERE org_id = ?`
	args := []interface{}{orgID}

	if filter.CreatedAfter != nil {
		query += " AND created_at >= ?"
		args = append(args, filter.CreatedAfter.Format(time.RFC3339))
	}
	if filter.CreatedBefore != nil {
		query += " AND created_at < ?"
		args = append(args, filter.CreatedBefore.Format(time.RFC3339))
	}
	if len(filter.Statuses) > 0 {
		query += " AND subscription_status IN (" + placeholders(len(filter.Statuses)) + ")"
		for _, s := range filter.Statuses {
			args = append(args, string(s))
		}
	}
	query += " ORDER BY created_at"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customers: %w", err)
	}

	return customers, nil
}

func scanCustomer(rows *sql.Rows) (Customer, error) {
	var c Customer
	var createdAt, status string
	var subStart, subEnd, firstPurchase, lastActivity sql.NullString

	if err := rows.Scan(&c.ID, &c.Name, &createdAt, &status, &subStart, &subEnd,
		&c.MonthlyValue, &c.LifetimeRevenue, &firstPurchase, &lastActivity); err != nil {
		return Customer{}, fmt.Errorf("failed to scan customer: %w", err)
	}

	created, err := parseTimestamp(createdAt)
	if err != nil {
		return Customer{}, fmt.Errorf("bad created_at for customer %s: %w", c.ID, err)
	}
	c.CreatedAt = created
	c.SubscriptionStatus = SubscriptionStatus(status)
	c.SubscriptionStart = parseOptionalTimestamp(subStart)
	c.SubscriptionEnd = parseOptionalTimestamp(subEnd)
	c.FirstPurchaseAt = parseOptionalTimestamp(firstPurchase)
	c.LastActivityAt = parseOptionalTimestamp(lastActivity)

	return c, nil
}

// parseTimestamp accepts both full RFC3339 timestamps and bare dates,
// since ingested records carry either depending on the source system
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func parseOptionalTimestamp(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := parseTimestamp(s.String)
	if err != nil {
		return nil
	}
	return &t
}
