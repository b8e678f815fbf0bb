package postgres

import (
	"context"
	"fmt"

	"github.com/mintsurvey/survey-service/internal/models"
	"github.com/mintsurvey/survey-service/internal/repositories"
	"gorm.io/gorm"
)

type Repository struct {
	db             *gorm.DB
	surveyResponse repositories.SurveyResponseRepository
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:             db,
		surveyResponse: NewSurveyResponsePostgreSQL(db),
	}
}

func (r *Repository) SurveyResponse() repositories.SurveyResponseRepository {
	return r.surveyResponse
}

func (r *Repository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates or updates the tables the service owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.SurveyResponse{}); err != nil {
		return fmt.Errorf("failed to migrate survey responses: %w", err)
	}
	return nil
}
