package stores

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// PlanRepository reads planning documents (budgets, revenue plans,
// headcount plans) for the variance analyzer
type PlanRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *sql.DB, log zerolog.Logger) *PlanRepository {
	return &PlanRepository{
		db:  db,
		log: log.With().Str("repo", "plans").Logger(),
	}
}

// GetActivePlan returns the line items of the active plan for the
// organization, fiscal year and kind, or ErrPlanNotFound
func (r *PlanRepository) GetActivePlan(orgID string, fiscalYear int, kind PlanKind) ([]PlannedLineItem, error) {
	planID, err := r.activePlanID(orgID, fiscalYear, kind)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(`
		SELECT id, category, COALESCE(subcategory, ''), COALESCE(account_ref, ''), name, annual_amount
		FROM plan_line_items
		WHERE plan_id = ?
		ORDER BY category, name`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query plan line items: %w", err)
	}
	defer rows.Close()

	var items []PlannedLineItem
	for rows.Next() {
		var item PlannedLineItem
		if err := rows.Scan(&item.ID, &item.Category, &item.Subcategory, &item.AccountRef, &item.Name, &item.AnnualAmount); err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating line items: %w", err)
	}

	for i := range items {
		amounts, err := r.monthlyAmounts(items[i].ID)
		if err != nil {
			return nil, err
		}
		items[i].MonthlyAmounts = amounts
	}

	return items, nil
}

// GetHeadcountPlan returns the planned roles of the active headcount
// plan, or ErrPlanNotFound
func (r *PlanRepository) GetHeadcountPlan(orgID string, fiscalYear int) ([]PlannedRole, error) {
	planID, err := r.activePlanID(orgID, fiscalYear, PlanKindHeadcount)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(`
		SELECT id, department, level, title, annual_salary, benefits_percent, start_month, end_month, headcount
		FROM planned_roles
		WHERE plan_id = ?
		ORDER BY department, title`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query planned roles: %w", err)
	}
	defer rows.Close()

	var roles []PlannedRole
	for rows.Next() {
		var role PlannedRole
		if err := rows.Scan(&role.ID, &role.Department, &role.Level, &role.Title,
			&role.AnnualSalary, &role.BenefitsPercent, &role.StartMonth, &role.EndMonth, &role.Headcount); err != nil {
			return nil, fmt.Errorf("failed to scan planned role: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating planned roles: %w", err)
	}

	for i := range roles {
		costs, err := r.roleCosts(roles[i].ID)
		if err != nil {
			return nil, err
		}
		if len(costs) > 0 {
			roles[i].MonthlyCosts = costs
		}
	}

	return roles, nil
}

func (r *PlanRepository) activePlanID(orgID string, fiscalYear int, kind PlanKind) (string, error) {
	var planID string
	err := r.db.QueryRow(`
		SELECT id FROM plans
		WHERE org_id = ? AND fiscal_year = ? AND kind = ? AND status = 'active'
		ORDER BY created_at DESC
		LIMIT 1`, orgID, fiscalYear, string(kind)).Scan(&planID)
	if err == sql.ErrNoRows {
		return "", ErrPlanNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve active plan: %w", err)
	}
	return planID, nil
}

func (r *PlanRepository) monthlyAmounts(lineItemID string) (map[int]float64, error) {
	rows, err := r.db.Query(`SELECT month, amount FROM plan_line_amounts WHERE line_item_id = ?`, lineItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly amounts: %w", err)
	}
	defer rows.Close()

	amounts := make(map[int]float64)
	for rows.Next() {
		var month int
		var amount float64
		if err := rows.Scan(&month, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan monthly amount: %w", err)
		}
		amounts[month] = amount
	}
	return amounts, rows.Err()
}

func (r *PlanRepository) roleCosts(roleID string) (map[int]float64, error) {
	rows, err := r.db.Query(`SELECT month, amount FROM planned_role_costs WHERE role_id = ?`, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query role costs: %w", err)
	}
	defer rows.Close()

	costs := make(map[int]float64)
	for rows.Next() {
		var month int
		var amount float64
		if err := rows.Scan(&month, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan role cost: %w", err)
		}
		costs[month] = amount
	}
	return costs, rows.Err()
}
