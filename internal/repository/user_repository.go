package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"habit-planner/internal/model"
)

// UserRepository handles CRUD for users.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, fmt.Errorf("find user: %w", translate(err))
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, fmt.Errorf("find user: %w", translate(err))
	}
	return &user, nil
}

func (r *UserRepository) FindByTelegramChatID(ctx context.Context, chatID int64) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("telegram_chat_id = ?", chatID).First(&user).Error; err != nil {
		return nil, fmt.Errorf("find user: %w", translate(err))
	}
	return &user, nil
}

func (r *UserRepository) ListAll(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateContact stores the user's reminder channels.
func (r *UserRepository) UpdateContact(ctx context.Context, userID string, telegramChatID *int64) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).
		Update("telegram_chat_id", telegramChatID)
	if res.Error != nil {
		return fmt.Errorf("update contact: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update contact: %w", ErrNotFound)
	}
	return nil
}

// SetStreakIf writes the streak only while the row still has the observed
// streak and, when activeBefore is set, was last active before it. It reports
// whether the row was changed.
func (r *UserRepository) SetStreakIf(ctx context.Context, userID string, observed int, activeBefore *time.Time, streak int, activeAt time.Time) (bool, error) {
	q := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND daily_streak = ?", userID, observed)
	if activeBefore != nil {
		q = q.Where("last_active_at < ?", activeBefore.UTC())
	}
	res := q.Updates(map[string]interface{}{
		"daily_streak":   streak,
		"last_active_at": activeAt.UTC(),
	})
	if res.Error != nil {
		return false, fmt.Errorf("update streak: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}
