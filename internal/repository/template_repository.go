package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"habit-planner/internal/model"
)

// TemplateRepository reads and seeds the template catalog.
type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// GetOrCreate returns the template with the same title, inserting tpl when
// none exists. Existing templates are never modified.
func (r *TemplateRepository) GetOrCreate(ctx context.Context, tpl model.Template) (*model.Template, bool, error) {
	var existing model.Template
	db := r.db.WithContext(ctx)
	err := db.Where("title = ?", tpl.Title).First(&existing).Error
	switch {
	case err == nil:
		return &existing, false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := db.Create(&tpl).Error; err != nil {
			return nil, false, fmt.Errorf("create template: %w", err)
		}
		return &tpl, true, nil
	default:
		return nil, false, fmt.Errorf("find template: %w", err)
	}
}

func (r *TemplateRepository) List(ctx context.Context) ([]model.Template, error) {
	templates := []model.Template{}
	if err := r.db.WithContext(ctx).Order("created_at ASC, title ASC").Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*model.Template, error) {
	var tpl model.Template
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&tpl).Error; err != nil {
		return nil, fmt.Errorf("find template: %w", translate(err))
	}
	return &tpl, nil
}
