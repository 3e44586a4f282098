package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"habit-planner/internal/model"
)

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Tx exposes repositories bound to one transaction.
type Tx struct {
	Tasks *TaskRepository
	Users *UserRepository
}

// InTx runs fn inside a database transaction. fn must only use the
// repositories it is given.
func (r *TaskRepository) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(Tx{Tasks: &TaskRepository{db: tx}, Users: &UserRepository{db: tx}})
	})
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	task.ScheduledDate = task.ScheduledDate.UTC()
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// CreateBatch inserts all tasks in one statement; either all rows land or none.
func (r *TaskRepository) CreateBatch(ctx context.Context, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	for i := range tasks {
		tasks[i].ScheduledDate = tasks[i].ScheduledDate.UTC()
	}
	if err := r.db.WithContext(ctx).Create(&tasks).Error; err != nil {
		return fmt.Errorf("create tasks: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, taskID string) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("id = ?", taskID).First(&task).Error; err != nil {
		return nil, fmt.Errorf("find task: %w", translate(err))
	}
	return &task, nil
}

// ListByUser returns the user's tasks ordered by creation time. When from and
// to are set only tasks scheduled within [from, to] are returned.
func (r *TaskRepository) ListByUser(ctx context.Context, userID string, from, to *time.Time) ([]model.Task, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if from != nil && to != nil {
		q = q.Where("scheduled_date >= ? AND scheduled_date <= ?", from.UTC(), to.UTC())
	}
	tasks := []model.Task{}
	if err := q.Order("created_at ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// ListPendingBetween returns incomplete tasks of the user scheduled within [from, to].
func (r *TaskRepository) ListPendingBetween(ctx context.Context, userID string, from, to time.Time) ([]model.Task, error) {
	tasks := []model.Task{}
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_completed = ? AND scheduled_date >= ? AND scheduled_date <= ?", userID, false, from.UTC(), to.UTC()).
		Order("scheduled_time, created_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list pending tasks: %w", err)
	}
	return tasks, nil
}

// ListDueAt returns incomplete, notification-enabled tasks scheduled within
// [from, to] at the given HH:MM, with their owners loaded.
func (r *TaskRepository) ListDueAt(ctx context.Context, from, to time.Time, hhmm string) ([]model.Task, error) {
	tasks := []model.Task{}
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("is_notification_enabled = ? AND is_completed = ? AND scheduled_time = ?", true, false, hhmm).
		Where("scheduled_date >= ? AND scheduled_date <= ?", from.UTC(), to.UTC()).
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list due tasks: %w", err)
	}
	return tasks, nil
}

// UpdateFields overwrites the user-editable fields of a task.
func (r *TaskRepository) UpdateFields(ctx context.Context, task *model.Task) error {
	task.ScheduledDate = task.ScheduledDate.UTC()
	res := r.db.WithContext(ctx).Model(task).
		Select("title", "scheduled_date", "scheduled_time", "is_notification_enabled", "updated_at").
		Updates(task)
	if res.Error != nil {
		return fmt.Errorf("update task: %w", res.Error)
	}
	return nil
}

// SetCompleted flips completion only while the row still holds the observed
// value. It reports whether the row was changed.
func (r *TaskRepository) SetCompleted(ctx context.Context, taskID string, observed bool) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND is_completed = ?", taskID, observed).
		Update("is_completed", !observed)
	if res.Error != nil {
		return false, fmt.Errorf("toggle task: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// DeleteByIDs removes the given tasks and returns how many rows were deleted.
func (r *TaskRepository) DeleteByIDs(ctx context.Context, taskIDs []string) (int64, error) {
	if len(taskIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", taskIDs).Delete(&model.Task{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete tasks: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// RollForward moves every incomplete task scheduled before cutoff to day in one
// statement and returns the number of rolled tasks.
func (r *TaskRepository) RollForward(ctx context.Context, cutoff, day time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("is_completed = ? AND scheduled_date < ?", false, cutoff.UTC()).
		Updates(map[string]interface{}{
			"scheduled_date": day.UTC(),
			"is_auto_rolled": true,
			"rolled_count":   gorm.Expr("rolled_count + ?", 1),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("roll tasks: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// CountByUser returns the total and completed task counts of a user.
func (r *TaskRepository) CountByUser(ctx context.Context, userID string) (total, completed int64, err error) {
	db := r.db.WithContext(ctx)
	if err := db.Model(&model.Task{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return 0, 0, fmt.Errorf("count tasks: %w", err)
	}
	if err := db.Model(&model.Task{}).Where("user_id = ? AND is_completed = ?", userID, true).Count(&completed).Error; err != nil {
		return 0, 0, fmt.Errorf("count completed tasks: %w", err)
	}
	return total, completed, nil
}

// CompletedDates returns the scheduled dates of the user's completed tasks.
func (r *TaskRepository) CompletedDates(ctx context.Context, userID string) ([]time.Time, error) {
	var dates []time.Time
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND is_completed = ?", userID, true).
		Pluck("scheduled_date", &dates).Error; err != nil {
		return nil, fmt.Errorf("list completed dates: %w", err)
	}
	return dates, nil
}
