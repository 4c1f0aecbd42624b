package stores

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// EmployeeRepository reads headcount actuals
type EmployeeRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *sql.DB, log zerolog.Logger) *EmployeeRepository {
	return &EmployeeRepository{
		db:  db,
		log: log.With().Str("repo", "employees").Logger(),
	}
}

// ActiveOn returns employees whose tenure covers the given date
func (r *EmployeeRepository) ActiveOn(orgID string, date time.Time) ([]Employee, error) {
	day := date.Format("2006-01-02")
	rows, err := r.db.Query(`
		SELECT id, department, level, annual_salary, benefits_percent, hired_at, ended_at
		FROM employees
		WHERE org_id = ?
		  AND hired_at <= ?
		  AND (ended_at IS NULL OR ended_at >= ?)
		ORDER BY department, level`, orgID, day, day)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var e Employee
		var hiredAt string
		var endedAt sql.NullString
		if err := rows.Scan(&e.ID, &e.Department, &e.Level, &e.AnnualSalary,
			&e.BenefitsPercent, &hiredAt, &endedAt); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		hired, err := parseTimestamp(hiredAt)
		if err != nil {
			return nil, fmt.Errorf("bad hired_at for employee %s: %w", e.ID, err)
		}
		e.HiredAt = hired
		e.EndedAt = parseOptionalTimestamp(endedAt)
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating employees: %w", err)
	}

	return employees, nil
}

// CountActiveOn returns the number of employees active on the date
func (r *EmployeeRepository) CountActiveOn(orgID string, date time.Time) (int, error) {
	day := date.Format("2006-01-02")
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM employees
		WHERE org_id = ?
		  AND hired_at <= ?
		  AND (ended_at IS NULL OR ended_at >= ?)`, orgID, day, day).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count employees: %w", err)
	}
	return count, nil
}
