package health

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// snapshotPayload is the msgpack-encoded detail blob of a snapshot row.
// The scalar columns stay queryable; the category breakdown does not
// need to be.
type snapshotPayload struct {
	CategoryScores  []CategoryScore  `msgpack:"category_scores"`
	Recommendations []Recommendation `msgpack:"recommendations"`
}

// SnapshotRepository persists snapshots in sqlite. Rows are inserted
// and optionally archived, never rewritten.
type SnapshotRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *sql.DB, log zerolog.Logger) *SnapshotRepository {
	return &SnapshotRepository{
		db:  db,
		log: log.With().Str("repo", "snapshots").Logger(),
	}
}

// Insert appends one snapshot to the history
func (r *SnapshotRepository) Insert(snapshot *Snapshot) error {
	payload, err := msgpack.Marshal(snapshotPayload{
		CategoryScores:  snapshot.CategoryScores,
		Recommendations: snapshot.Recommendations,
	})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot payload: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO health_score_snapshots
			(id, org_id, calculated_at, overall_score, overall_status, previous_score, score_change, payload, archived)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		snapshot.ID,
		snapshot.OrgID,
		snapshot.CalculatedAt.UTC().Format(time.RFC3339),
		snapshot.OverallScore,
		string(snapshot.OverallStatus),
		nullableFloat(snapshot.PreviousScore),
		nullableFloat(snapshot.ScoreChange),
		payload,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// Latest returns the newest non-archived snapshot, or nil when the
// organization has no history yet
func (r *SnapshotRepository) Latest(orgID string) (*Snapshot, error) {
	row := r.db.QueryRow(selectSnapshot+`
		WHERE org_id = ? AND archived = 0
		ORDER BY calculated_at DESC LIMIT 1`, orgID)
	return r.scanOptional(row)
}

// LatestBefore returns the newest non-archived snapshot calculated at
// or before cutoff, or nil
func (r *SnapshotRepository) LatestBefore(orgID string, cutoff time.Time) (*Snapshot, error) {
	row := r.db.QueryRow(selectSnapshot+`
		WHERE org_id = ? AND archived = 0 AND calculated_at <= ?
		ORDER BY calculated_at DESC LIMIT 1`,
		orgID, cutoff.UTC().Format(time.RFC3339))
	return r.scanOptional(row)
}

// History returns snapshots newest first, archived rows included
func (r *SnapshotRepository) History(orgID string, limit int) ([]Snapshot, error) {
	rows, err := r.db.Query(selectSnapshot+`
		WHERE org_id = ?
		ORDER BY calculated_at DESC LIMIT ?`, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot history: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		snapshot, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, *snapshot)
	}
	return snapshots, rows.Err()
}

// Archive flags a snapshot out of "latest" lookups. The row stays in
// the history.
func (r *SnapshotRepository) Archive(orgID, snapshotID string) error {
	result, err := r.db.Exec(`
		UPDATE health_score_snapshots SET archived = 1
		WHERE id = ? AND org_id = ?`, snapshotID, orgID)
	if err != nil {
		return fmt.Errorf("failed to archive snapshot: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to archive snapshot: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("snapshot %s not found", snapshotID)
	}
	return nil
}

const selectSnapshot = `
	SELECT id, org_id, calculated_at, overall_score, overall_status,
	       previous_score, score_change, payload, archived
	FROM health_score_snapshots`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SnapshotRepository) scan(row rowScanner) (*Snapshot, error) {
	var (
		snapshot      Snapshot
		calculatedAt  string
		previousScore sql.NullFloat64
		scoreChange   sql.NullFloat64
		payload       []byte
	)
	if err := row.Scan(
		&snapshot.ID,
		&snapshot.OrgID,
		&calculatedAt,
		&snapshot.OverallScore,
		&snapshot.OverallStatus,
		&previousScore,
		&scoreChange,
		&payload,
		&snapshot.Archived,
	); err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	parsed, err := time.Parse(time.RFC3339, calculatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot timestamp: %w", err)
	}
	snapshot.CalculatedAt = parsed

	if previousScore.Valid {
		snapshot.PreviousScore = &previousScore.Float64
	}
	if scoreChange.Valid {
		snapshot.ScoreChange = &scoreChange.Float64
	}

	var detail snapshotPayload
	if err := msgpack.Unmarshal(payload, &detail); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot payload: %w", err)
	}
	snapshot.CategoryScores = detail.CategoryScores
	snapshot.Recommendations = detail.Recommendations

	return &snapshot, nil
}

func (r *SnapshotRepository) scanOptional(row *sql.Row) (*Snapshot, error) {
	snapshot, err := r.scan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return snapshot, nil
}

func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
