package health

import (
	"time"
)

// Category names one of the seven scored health dimensions
type Category string

const (
	CategoryRunway        Category = "runway"
	CategoryBurnRate      Category = "burn_rate"
	CategoryRevenueGrowth Category = "revenue_growth"
	CategoryGrossMargin   Category = "gross_margin"
	CategoryLiquidity     Category = "liquidity"
	CategoryEfficiency    Category = "efficiency"
	CategoryUnitEconomics Category = "unit_economics"
)

// categoryOrder fixes the presentation order of category scores.
var categoryOrder = []Category{
	CategoryRunway,
	CategoryBurnRate,
	CategoryRevenueGrowth,
	CategoryGrossMargin,
	CategoryLiquidity,
	CategoryEfficiency,
	CategoryUnitEconomics,
}

// categoryWeights are the fixed percentage weights. They sum to 100.
var categoryWeights = map[Category]float64{
	CategoryRunway:        25,
	CategoryBurnRate:      15,
	CategoryRevenueGrowth: 20,
	CategoryGrossMargin:   15,
	CategoryLiquidity:     10,
	CategoryEfficiency:    10,
	CategoryUnitEconomics: 5,
}

// Status is the qualitative label for a 0-100 score
type Status string

const (
	StatusExcellent Status = "excellent"
	StatusGood      Status = "good"
	StatusFair      Status = "fair"
	StatusPoor      Status = "poor"
	StatusCritical  Status = "critical"
)

// StatusFor maps a 0-100 score to its label
func StatusFor(score float64) Status {
	switch {
	case score >= 90:
		return StatusExcellent
	case score >= 70:
		return StatusGood
	case score >= 50:
		return StatusFair
	case score >= 30:
		return StatusPoor
	default:
		return StatusCritical
	}
}

// Priority orders recommendations. High sorts first.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// priorityRank gives the sort key for pooled recommendations.
func priorityRank(p Priority) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// MaxRecommendations caps the pooled recommendation list.
const MaxRecommendations = 5

// Recommendation is one actionable suggestion attached to a category
type Recommendation struct {
	Category Category `json:"category"`
	Priority Priority `json:"priority"`
	Message  string   `json:"message"`
}

// MetricValue is one supporting measurement shown with a category score
type MetricValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

// CategoryScore is the result of one category scorer
type CategoryScore struct {
	Category        Category         `json:"category"`
	Score           float64          `json:"score"`
	Weight          float64          `json:"weight"`
	WeightedScore   float64          `json:"weighted_score"`
	Status          Status           `json:"status"`
	Metrics         []MetricValue    `json:"metrics,omitempty"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
}

// Snapshot is one immutable computation of the overall health score.
// History is append-only: snapshots are inserted and optionally
// archived, never updated.
type Snapshot struct {
	ID              string           `json:"id"`
	OrgID           string           `json:"org_id"`
	CalculatedAt    time.Time        `json:"calculated_at"`
	OverallScore    float64          `json:"overall_score"`
	OverallStatus   Status           `json:"overall_status"`
	PreviousScore   *float64         `json:"previous_score,omitempty"`
	ScoreChange     *float64         `json:"score_change,omitempty"`
	CategoryScores  []CategoryScore  `json:"category_scores"`
	Recommendations []Recommendation `json:"recommendations"`
	Archived        bool             `json:"archived,omitempty"`
}
