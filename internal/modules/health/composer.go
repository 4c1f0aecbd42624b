package health

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/finpulse/finpulse/internal/modules/periods"
	"github.com/finpulse/finpulse/internal/modules/trends"
	"github.com/finpulse/finpulse/internal/modules/uniteconomics"
	"github.com/finpulse/finpulse/internal/stores"
	"github.com/finpulse/finpulse/pkg/formulas"
)

// previousSnapshotAge is the minimum age of the snapshot used as the
// comparison baseline. Same-day recomputes never compare against each
// other.
const previousSnapshotAge = 24 * time.Hour

// TrendSource supplies annotated trend series
type TrendSource interface {
	Analyze(orgID string, metric trends.MetricType, g periods.Granularity, window periods.Range) (*trends.Analysis, error)
}

// EconomicsSource supplies the unit economics overview
type EconomicsSource interface {
	Overview(orgID string, ref time.Time) (*uniteconomics.Overview, error)
}

// BankStore provides the live cash position
type BankStore interface {
	CurrentBalance(orgID string) (float64, error)
}

// LedgerStore provides expense and revenue totals
type LedgerStore interface {
	SumTotal(orgID string, start, end time.Time, kind stores.RecordKind) (float64, error)
}

// SnapshotStore persists the append-only snapshot history
type SnapshotStore interface {
	Insert(snapshot *Snapshot) error
	Latest(orgID string) (*Snapshot, error)
	LatestBefore(orgID string, cutoff time.Time) (*Snapshot, error)
	History(orgID string, limit int) ([]Snapshot, error)
	Archive(orgID, snapshotID string) error
}

// Composer runs the seven category scorers and composes the overall
// health score. Every composition is persisted as a new snapshot.
type Composer struct {
	trends    TrendSource
	economics EconomicsSource
	bank      BankStore
	ledger    LedgerStore
	snapshots SnapshotStore
	log       zerolog.Logger
}

// NewComposer creates a new health score composer
func NewComposer(trendSource TrendSource, economics EconomicsSource, bank BankStore, ledger LedgerStore, snapshots SnapshotStore, log zerolog.Logger) *Composer {
	return &Composer{
		trends:    trendSource,
		economics: economics,
		bank:      bank,
		ledger:    ledger,
		snapshots: snapshots,
		log:       log.With().Str("component", "health").Logger(),
	}
}

type scorerFunc func(orgID string, ref time.Time) (CategoryScore, error)

func (c *Composer) scorers() map[Category]scorerFunc {
	return map[Category]scorerFunc{
		CategoryRunway:        c.scoreRunway,
		CategoryBurnRate:      c.scoreBurnRate,
		CategoryRevenueGrowth: c.scoreRevenueGrowth,
		CategoryGrossMargin:   c.scoreGrossMargin,
		CategoryLiquidity:     c.scoreLiquidity,
		CategoryEfficiency:    c.scoreEfficiency,
		CategoryUnitEconomics: c.scoreUnitEconomics,
	}
}

// Compose runs all category scorers concurrently, composes the weighted
// overall score and persists the result as a new snapshot.
func (c *Composer) Compose(orgID string, ref time.Time) (*Snapshot, error) {
	scorers := c.scorers()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		byCat    = make(map[Category]CategoryScore, len(scorers))
		firstErr error
	)
	for category, scorer := range scorers {
		wg.Add(1)
		go func(category Category, scorer scorerFunc) {
			defer wg.Done()
			score, err := scorer(orgID, ref)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("failed to score %s: %w", category, err)
				}
				return
			}
			byCat[category] = score
		}(category, scorer)
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}

	snapshot := &Snapshot{
		ID:           uuid.NewString(),
		OrgID:        orgID,
		CalculatedAt: ref,
	}

	for _, category := range categoryOrder {
		score := byCat[category]
		snapshot.CategoryScores = append(snapshot.CategoryScores, score)
		snapshot.Recommendations = append(snapshot.Recommendations, score.Recommendations...)
	}
	snapshot.OverallScore = overallScore(snapshot.CategoryScores)
	snapshot.OverallStatus = StatusFor(snapshot.OverallScore)
	snapshot.Recommendations = capRecommendations(snapshot.Recommendations)

	previous, err := c.snapshots.LatestBefore(orgID, ref.Add(-previousSnapshotAge))
	if err != nil {
		return nil, fmt.Errorf("failed to load previous snapshot: %w", err)
	}
	if previous != nil {
		prevScore := previous.OverallScore
		change := formulas.Round2(snapshot.OverallScore - prevScore)
		snapshot.PreviousScore = &prevScore
		snapshot.ScoreChange = &change
	}

	if err := c.snapshots.Insert(snapshot); err != nil {
		return nil, fmt.Errorf("failed to persist snapshot: %w", err)
	}

	c.log.Info().
		Str("org", orgID).
		Float64("score", snapshot.OverallScore).
		Str("status", string(snapshot.OverallStatus)).
		Msg("Health score computed")

	return snapshot, nil
}

// Latest returns the most recent non-archived snapshot, computing a
// fresh one when no history exists yet.
func (c *Composer) Latest(orgID string, ref time.Time) (*Snapshot, error) {
	snapshot, err := c.snapshots.Latest(orgID)
	if err != nil {
		return nil, err
	}
	if snapshot != nil {
		return snapshot, nil
	}
	return c.Compose(orgID, ref)
}

// History returns snapshots newest first.
func (c *Composer) History(orgID string, limit int) ([]Snapshot, error) {
	return c.snapshots.History(orgID, limit)
}

// Archive marks a snapshot so it no longer serves as "latest". The row
// itself stays.
func (c *Composer) Archive(orgID, snapshotID string) error {
	return c.snapshots.Archive(orgID, snapshotID)
}

// overallScore is the weighted sum of the category scores. With all
// weights summing to 100, equal category scores collapse to that value.
func overallScore(scores []CategoryScore) float64 {
	var overall float64
	for _, score := range scores {
		overall += score.Score * score.Weight / 100
	}
	return formulas.Round2(overall)
}

// capRecommendations sorts the pooled recommendations by priority and
// keeps the top MaxRecommendations. The sort is stable so category
// order breaks ties.
func capRecommendations(recs []Recommendation) []Recommendation {
	sort.SliceStable(recs, func(i, j int) bool {
		return priorityRank(recs[i].Priority) < priorityRank(recs[j].Priority)
	})
	if len(recs) > MaxRecommendations {
		recs = recs[:MaxRecommendations]
	}
	return recs
}
