package model

import "time"

// TemplateTask is one entry of a template bundle.
type TemplateTask struct {
	Title         string `json:"title"`
	ScheduledTime string `json:"scheduledTime"`
}

// Template is a named bundle of tasks that can be applied to a day.
type Template struct {
	ID          string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title       string         `gorm:"type:varchar(191);uniqueIndex;not null" json:"title"`
	Icon        string         `json:"icon"`
	Description string         `json:"description"`
	Tasks       []TemplateTask `gorm:"serializer:json" json:"tasks"`
	CreatedAt   time.Time      `json:"createdAt"`
}
