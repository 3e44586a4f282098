package model

import "time"

// JobRun records the last time a named background job ran.
type JobRun struct {
	Name      string    `gorm:"primaryKey;type:varchar(64)"`
	LastRunAt time.Time `gorm:"not null"`
}
