package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"habit-planner/internal/model"
	"habit-planner/internal/repository"
)

// ProfileInput carries the editable calorie-tracking profile fields.
type ProfileInput struct {
	Gender         string
	DateOfBirth    *time.Time
	HeightCm       float64
	WeightKg       float64
	TargetWeightKg float64
	ActivityLevel  string
	Goal           string
}

// MealInput is a manually logged meal.
type MealInput struct {
	Description string
	Calories    int
	Protein     float64
	Carbs       float64
	Fats        float64
	Date        *time.Time
}

// Dashboard sums today's meals against the daily calorie target.
type Dashboard struct {
	CaloriesLeft  int          `json:"caloriesLeft"`
	TotalCalories int          `json:"totalCalories"`
	TotalProtein  float64      `json:"totalProtein"`
	TotalCarbs    float64      `json:"totalCarbs"`
	TotalFats     float64      `json:"totalFats"`
	Meals         []model.Meal `json:"meals"`
	Streak        int          `json:"streak"`
}

// NutritionService backs the calorie-tracking screens.
type NutritionService struct {
	repo     *repository.NutritionRepository
	userRepo *repository.UserRepository
	target   int
	clock    clock
}

func NewNutritionService(repo *repository.NutritionRepository, userRepo *repository.UserRepository, dailyTarget int, loc *time.Location, opts ...Option) *NutritionService {
	return &NutritionService{
		repo:     repo,
		userRepo: userRepo,
		target:   dailyTarget,
		clock:    newClock(loc, opts),
	}
}

func (s *NutritionService) Profile(ctx context.Context, userID string) (*model.NutritionProfile, error) {
	return s.repo.FindProfile(ctx, userID)
}

func (s *NutritionService) SaveProfile(ctx context.Context, userID string, in ProfileInput) (*model.NutritionProfile, error) {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	if in.HeightCm < 0 || in.WeightKg < 0 || in.TargetWeightKg < 0 {
		return nil, fmt.Errorf("%w: body metrics must not be negative", ErrValidation)
	}
	profile := model.NutritionProfile{
		UserID:         userID,
		Gender:         strings.TrimSpace(in.Gender),
		DateOfBirth:    in.DateOfBirth,
		HeightCm:       in.HeightCm,
		WeightKg:       in.WeightKg,
		TargetWeightKg: in.TargetWeightKg,
		ActivityLevel:  strings.TrimSpace(in.ActivityLevel),
		Goal:           strings.TrimSpace(in.Goal),
	}
	if err := s.repo.UpsertProfile(ctx, &profile); err != nil {
		return nil, err
	}
	return s.repo.FindProfile(ctx, userID)
}

func (s *NutritionService) LogMeal(ctx context.Context, userID string, in MealInput) (*model.Meal, error) {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	in.Description = strings.TrimSpace(in.Description)
	if in.Description == "" {
		return nil, fmt.Errorf("%w: description is required", ErrValidation)
	}
	if in.Calories < 0 || in.Protein < 0 || in.Carbs < 0 || in.Fats < 0 {
		return nil, fmt.Errorf("%w: nutrition values must not be negative", ErrValidation)
	}
	date := s.clock.now()
	if in.Date != nil {
		date = *in.Date
	}
	meal := model.Meal{
		UserID:      userID,
		Description: in.Description,
		Calories:    in.Calories,
		Protein:     in.Protein,
		Carbs:       in.Carbs,
		Fats:        in.Fats,
		Date:        date,
	}
	if err := s.repo.CreateMeal(ctx, &meal); err != nil {
		return nil, err
	}
	return &meal, nil
}

// Dashboard fails with ErrNotFound when the user has no profile yet.
func (s *NutritionService) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	if _, err := s.repo.FindProfile(ctx, userID); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	meals, err := s.repo.ListMealsSince(ctx, userID, startOfDay(s.clock.now(), s.clock.loc))
	if err != nil {
		return nil, err
	}

	d := &Dashboard{Meals: meals, Streak: user.DailyStreak}
	for _, m := range meals {
		d.TotalCalories += m.Calories
		d.TotalProtein += m.Protein
		d.TotalCarbs += m.Carbs
		d.TotalFats += m.Fats
	}
	d.CaloriesLeft = s.target - d.TotalCalories
	return d, nil
}
