package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User owns tasks and carries the streak counters.
type User struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Email          string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"email"`
	PasswordHash   string    `gorm:"not null" json:"-"`
	TelegramChatID *int64    `gorm:"index" json:"telegramChatId"`
	DailyStreak    int       `gorm:"default:0" json:"dailyStreak"`
	WeeklyStreak   int       `gorm:"default:0" json:"weeklyStreak"`
	LastActiveAt   time.Time `json:"lastActiveAt"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.LastActiveAt.IsZero() {
		u.LastActiveAt = time.Now().UTC()
	}
	return nil
}
