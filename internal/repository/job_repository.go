package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"habit-planner/internal/model"
)

// JobRepository tracks background job runs.
type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Claim records a run of the named job at now unless one was recorded less
// than minGap ago on or after dayStart. It reports whether the caller may run
// the job.
func (r *JobRepository) Claim(ctx context.Context, name string, now time.Time, minGap time.Duration, dayStart time.Time) (bool, error) {
	now = now.UTC()
	db := r.db.WithContext(ctx)

	res := db.Model(&model.JobRun{}).
		Where("name = ? AND (last_run_at <= ? OR last_run_at < ?)", name, now.Add(-minGap), dayStart.UTC()).
		Update("last_run_at", now)
	if res.Error != nil {
		return false, fmt.Errorf("claim job: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	res = db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.JobRun{Name: name, LastRunAt: now})
	if res.Error != nil {
		return false, fmt.Errorf("claim job: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Unclaim drops the run recorded at claimedAt, if it is still the latest.
func (r *JobRepository) Unclaim(ctx context.Context, name string, claimedAt time.Time) error {
	err := r.db.WithContext(ctx).
		Where("name = ? AND last_run_at = ?", name, claimedAt.UTC()).
		Delete(&model.JobRun{}).Error
	if err != nil {
		return fmt.Errorf("unclaim job: %w", err)
	}
	return nil
}
