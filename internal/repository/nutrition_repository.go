package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"habit-planner/internal/model"
)

// NutritionRepository stores calorie-tracking profiles and meals.
type NutritionRepository struct {
	db *gorm.DB
}

func NewNutritionRepository(db *gorm.DB) *NutritionRepository {
	return &NutritionRepository{db: db}
}

func (r *NutritionRepository) FindProfile(ctx context.Context, userID string) (*model.NutritionProfile, error) {
	var profile model.NutritionProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, fmt.Errorf("find profile: %w", translate(err))
	}
	return &profile, nil
}

// UpsertProfile inserts the profile or overwrites the stored one for the same user.
func (r *NutritionRepository) UpsertProfile(ctx context.Context, profile *model.NutritionProfile) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"gender", "date_of_birth", "height_cm", "weight_kg",
			"target_weight_kg", "activity_level", "goal", "updated_at",
		}),
	}).Create(profile).Error
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (r *NutritionRepository) CreateMeal(ctx context.Context, meal *model.Meal) error {
	meal.Date = meal.Date.UTC()
	if err := r.db.WithContext(ctx).Create(meal).Error; err != nil {
		return fmt.Errorf("create meal: %w", err)
	}
	return nil
}

// ListMealsSince returns the user's meals dated at or after since, oldest first.
func (r *NutritionRepository) ListMealsSince(ctx context.Context, userID string, since time.Time) ([]model.Meal, error) {
	meals := []model.Meal{}
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND date >= ?", userID, since.UTC()).
		Order("date ASC").
		Find(&meals).Error; err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	return meals, nil
}
