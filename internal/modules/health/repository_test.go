package health

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finpulse/finpulse/internal/database"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleSnapshot(orgID string, calculatedAt time.Time, score float64) *Snapshot {
	prev := score - 5
	change := 5.0
	return &Snapshot{
		ID:            uuid.NewString(),
		OrgID:         orgID,
		CalculatedAt:  calculatedAt,
		OverallScore:  score,
		OverallStatus: StatusFor(score),
		PreviousScore: &prev,
		ScoreChange:   &change,
		CategoryScores: []CategoryScore{
			{Category: CategoryRunway, Score: 75, Weight: 25, WeightedScore: 18.75, Status: StatusGood,
				Metrics: []MetricValue{{Name: "runway_months", Value: 12, Unit: "months"}}},
			{Category: CategoryBurnRate, Score: 70, Weight: 15, WeightedScore: 10.5, Status: StatusGood},
		},
		Recommendations: []Recommendation{
			{Category: CategoryRunway, Priority: PriorityMedium, Message: "Runway is under 12 months. Plan the next funding round."},
		},
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewSnapshotRepository(db.Conn(), newTestLogger())

	original := sampleSnapshot("org-1", time.Date(2025, 8, 10, 6, 0, 0, 0, time.UTC), 72.5)
	require.NoError(t, repo.Insert(original))

	loaded, err := repo.Latest("org-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, original.ID, loaded.ID)
	assert.True(t, loaded.CalculatedAt.Equal(original.CalculatedAt))
	assert.Equal(t, original.OverallScore, loaded.OverallScore)
	assert.Equal(t, original.OverallStatus, loaded.OverallStatus)
	require.NotNil(t, loaded.PreviousScore)
	assert.Equal(t, 67.5, *loaded.PreviousScore)
	assert.Equal(t, original.CategoryScores, loaded.CategoryScores)
	assert.Equal(t, original.Recommendations, loaded.Recommendations)
	assert.False(t, loaded.Archived)
}

func TestSnapshotLatestSkipsArchived(t *testing.T) {
	db := openTestDB(t)
	repo := NewSnapshotRepository(db.Conn(), newTestLogger())

	older := sampleSnapshot("org-1", time.Date(2025, 8, 1, 6, 0, 0, 0, time.UTC), 60)
	newer := sampleSnapshot("org-1", time.Date(2025, 8, 10, 6, 0, 0, 0, time.UTC), 80)
	require.NoError(t, repo.Insert(older))
	require.NoError(t, repo.Insert(newer))

	require.NoError(t, repo.Archive("org-1", newer.ID))

	latest, err := repo.Latest("org-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, older.ID, latest.ID)

	// The archived row still shows up in history.
	history, err := repo.History("org-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].Archived)
}

func TestSnapshotLatestBefore(t *testing.T) {
	db := openTestDB(t)
	repo := NewSnapshotRepository(db.Conn(), newTestLogger())

	old := sampleSnapshot("org-1", time.Date(2025, 8, 1, 6, 0, 0, 0, time.UTC), 60)
	recent := sampleSnapshot("org-1", time.Date(2025, 8, 15, 6, 0, 0, 0, time.UTC), 80)
	require.NoError(t, repo.Insert(old))
	require.NoError(t, repo.Insert(recent))

	found, err := repo.LatestBefore("org-1", time.Date(2025, 8, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, old.ID, found.ID)

	none, err := repo.LatestBefore("org-1", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestSnapshotLatestEmptyHistory(t *testing.T) {
	db := openTestDB(t)
	repo := NewSnapshotRepository(db.Conn(), newTestLogger())

	latest, err := repo.Latest("org-without-history")
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestArchiveUnknownSnapshot(t *testing.T) {
	db := openTestDB(t)
	repo := NewSnapshotRepository(db.Conn(), newTestLogger())

	err := repo.Archive("org-1", "no-such-id")
	assert.Error(t, err)
}
