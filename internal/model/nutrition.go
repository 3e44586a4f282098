package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NutritionProfile holds the body metrics a user entered for calorie tracking.
type NutritionProfile struct {
	ID             string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID         string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"userId"`
	Gender         string     `json:"gender"`
	DateOfBirth    *time.Time `json:"dateOfBirth"`
	HeightCm       float64    `json:"heightCm"`
	WeightKg       float64    `json:"weightKg"`
	TargetWeightKg float64    `json:"targetWeightKg"`
	ActivityLevel  string     `json:"activityLevel"`
	Goal           string     `json:"goal"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (p *NutritionProfile) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Meal is one logged meal with its macro breakdown.
type Meal struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      string    `gorm:"type:varchar(36);index;not null" json:"userId"`
	Description string    `json:"description"`
	Calories    int       `json:"calories"`
	Protein     float64   `json:"protein"`
	Carbs       float64   `json:"carbs"`
	Fats        float64   `json:"fats"`
	Date        time.Time `gorm:"index" json:"date"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (m *Meal) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
