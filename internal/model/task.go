package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Task is a single planned item scheduled for a calendar day.
type Task struct {
	ID                    string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID                string    `gorm:"type:varchar(36);index;not null" json:"userId"`
	User                  *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Title                 string    `gorm:"not null" json:"title"`
	ScheduledDate         time.Time `gorm:"index;not null" json:"scheduledDate"`
	ScheduledTime         *string   `gorm:"type:varchar(5)" json:"scheduledTime"` // HH:MM, no timezone
	IsCompleted           bool      `gorm:"default:false" json:"isCompleted"`
	IsAutoRolled          bool      `gorm:"default:false" json:"isAutoRolled"`
	RolledCount           int       `gorm:"default:0" json:"rolledCount"`
	IsNotificationEnabled bool      `gorm:"not null" json:"isNotificationEnabled"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

func (t *Task) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
