package stores

import (
	"errors"
	"time"
)

// ErrPlanNotFound is returned when no active plan exists for the
// requested organization, fiscal year and kind. The absence of a plan
// is meaningful to callers and is never papered over with an empty
// default report.
var ErrPlanNotFound = errors.New("no active plan found")

// PlanKind identifies which planning document a plan holds
type PlanKind string

const (
	PlanKindBudget    PlanKind = "budget"
	PlanKindRevenue   PlanKind = "revenue"
	PlanKindHeadcount PlanKind = "headcount"
)

// RecordKind selects which ledger table an aggregate query runs over
type RecordKind string

const (
	RecordKindExpense RecordKind = "expense"
	RecordKindRevenue RecordKind = "revenue"
)

// SubscriptionStatus is the customer subscription lifecycle state
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionChurned  SubscriptionStatus = "churned"
	SubscriptionNone     SubscriptionStatus = "none"
)

// PlannedLineItem is an immutable snapshot of one line of a budget or
// revenue plan for a fiscal year. MonthlyAmounts is keyed by calendar
// month 1..12; months without a planned amount are absent.
type PlannedLineItem struct {
	ID             string          `json:"id"`
	Category       string          `json:"category"`
	Subcategory    string          `json:"subcategory,omitempty"`
	AccountRef     string          `json:"account_ref,omitempty"`
	Name           string          `json:"name"`
	MonthlyAmounts map[int]float64 `json:"monthly_amounts"`
	AnnualAmount   float64         `json:"annual_amount"`
}

// PlannedRole is one line of a headcount plan
type PlannedRole struct {
	ID              string          `json:"id"`
	Department      string          `json:"department"`
	Level           string          `json:"level"`
	Title           string          `json:"title"`
	AnnualSalary    float64         `json:"annual_salary"`
	BenefitsPercent float64         `json:"benefits_percent"`
	StartMonth      int             `json:"start_month"`
	EndMonth        int             `json:"end_month"`
	Headcount       int             `json:"headcount"`
	MonthlyCosts    map[int]float64 `json:"monthly_costs,omitempty"`
}

// ActualAggregate is one grouped row of actuals: all matching ledger
// records for a (category, account_ref) pair summed over a date window.
// Grouping beyond this flat shape happens in the analytics core.
type ActualAggregate struct {
	Category    string    `json:"category"`
	AccountRef  string    `json:"account_ref,omitempty"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	Amount      float64   `json:"amount"`
}

// Customer carries the fields the unit economics engine reads
type Customer struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	CreatedAt          time.Time          `json:"created_at"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status"`
	SubscriptionStart  *time.Time         `json:"subscription_start,omitempty"`
	SubscriptionEnd    *time.Time         `json:"subscription_end,omitempty"`
	MonthlyValue       float64            `json:"monthly_value"`
	LifetimeRevenue    float64            `json:"lifetime_revenue"`
	FirstPurchaseAt    *time.Time         `json:"first_purchase_at,omitempty"`
	LastActivityAt     *time.Time         `json:"last_activity_at,omitempty"`
}

// CustomerFilter narrows a customer query. Zero-valued fields are
// ignored.
type CustomerFilter struct {
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Statuses      []SubscriptionStatus
}

// Employee is one row of headcount actuals
type Employee struct {
	ID              string     `json:"id"`
	Department      string     `json:"department"`
	Level           string     `json:"level"`
	AnnualSalary    float64    `json:"annual_salary"`
	BenefitsPercent float64    `json:"benefits_percent"`
	HiredAt         time.Time  `json:"hired_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
}
