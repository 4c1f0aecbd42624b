package scheduler

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/finpulse/finpulse/internal/modules/health"
)

// SnapshotJob computes and persists a health score snapshot for each
// configured organization. Same computation the refresh endpoint runs,
// just on a schedule.
type SnapshotJob struct {
	composer *health.Composer
	orgs     []string
	log      zerolog.Logger
}

// NewSnapshotJob creates a new snapshot job
func NewSnapshotJob(composer *health.Composer, orgs []string, log zerolog.Logger) *SnapshotJob {
	return &SnapshotJob{
		composer: composer,
		orgs:     orgs,
		log:      log.With().Str("job", "health_snapshot").Logger(),
	}
}

// Name returns the job name
func (j *SnapshotJob) Name() string {
	return "health_snapshot"
}

// Run computes one snapshot per organization. A failing organization
// does not block the others.
func (j *SnapshotJob) Run() error {
	if len(j.orgs) == 0 {
		j.log.Debug().Msg("No organizations configured, skipping")
		return nil
	}

	now := time.Now().UTC()
	failed := 0
	for _, org := range j.orgs {
		snapshot, err := j.composer.Compose(org, now)
		if err != nil {
			failed++
			j.log.Error().Err(err).Str("org", org).Msg("Snapshot failed")
			continue
		}
		j.log.Info().
			Str("org", org).
			Float64("score", snapshot.OverallScore).
			Str("status", string(snapshot.OverallStatus)).
			Msg("Snapshot stored")
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d organizations failed", failed, len(j.orgs))
	}
	return nil
}
