package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/mintsurvey/survey-service/internal/models"
	"github.com/mintsurvey/survey-service/internal/repositories"
	"gorm.io/gorm"
)

type SurveyResponsePostgreSQL struct {
	db *gorm.DB
}

func NewSurveyResponsePostgreSQL(db *gorm.DB) repositories.SurveyResponseRepository {
	return &SurveyResponsePostgreSQL{db: db}
}

func (s *SurveyResponsePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

// Create stores a new response. The ID is assigned by the model hook.
func (s *SurveyResponsePostgreSQL) Create(ctx context.Context, tx *gorm.DB, response *models.SurveyResponse) error {
	if err := s.getDB(tx).WithContext(ctx).Create(response).Error; err != nil {
		return fmt.Errorf("failed to create survey response: %w", err)
	}
	return nil
}

func (s *SurveyResponsePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.SurveyResponse, error) {
	var response models.SurveyResponse
	err := s.getDB(tx).WithContext(ctx).Where("id = ?", id).First(&response).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get survey response: %w", err)
	}
	return &response, nil
}

// List returns one page of responses and the total matching the filters.
func (s *SurveyResponsePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.SurveyResponseFilters) ([]*models.SurveyResponse, int64, error) {
	filters = repositories.NormalizeFilters(filters)
	query := s.applyFilters(s.getDB(tx).WithContext(ctx).Model(&models.SurveyResponse{}), filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count survey responses: %w", err)
	}

	var responses []*models.SurveyResponse
	err := query.
		Order(fmt.Sprintf("%s %s", filters.SortBy, filters.SortOrder)).
		Limit(filters.Limit).
		Offset(filters.Offset).
		Find(&responses).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list survey responses: %w", err)
	}

	return responses, total, nil
}

func (s *SurveyResponsePostgreSQL) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	var total int64
	if err := s.getDB(tx).WithContext(ctx).Model(&models.SurveyResponse{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count survey responses: %w", err)
	}
	return total, nil
}

// Stats aggregates ratings over vehicle owners and counts responses per
// purchase type.
func (s *SurveyResponsePostgreSQL) Stats(ctx context.Context, tx *gorm.DB) (*repositories.SurveyStats, error) {
	db := s.getDB(tx).WithContext(ctx)
	stats := &repositories.SurveyStats{}

	if err := db.Model(&models.SurveyResponse{}).Count(&stats.TotalResponses).Error; err != nil {
		return nil, fmt.Errorf("failed to count survey responses: %w", err)
	}

	var averages struct {
		Owners       int64
		Recommend    *float64
		Satisfaction *float64
		Repurchase   *float64
	}
	err := db.Model(&models.SurveyResponse{}).
		Select(`COUNT(*) AS owners,
			AVG(recommend_likelihood) AS recommend,
			AVG(satisfaction_level) AS satisfaction,
			AVG(repurchase_likelihood) AS repurchase`).
		Where("purchase_type <> ?", models.NoneOfTheAbove).
		Scan(&averages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	stats.VehicleOwners = averages.Owners
	stats.AverageRecommend = deref(averages.Recommend)
	stats.AverageSatisfaction = deref(averages.Satisfaction)
	stats.AverageRepurchase = deref(averages.Repurchase)

	err = db.Model(&models.SurveyResponse{}).
		Select("purchase_type, COUNT(*) AS count").
		Group("purchase_type").
		Order("count DESC, purchase_type ASC").
		Scan(&stats.ResponsesByPurchaseType).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count by purchase type: %w", err)
	}

	return stats, nil
}

func (s *SurveyResponsePostgreSQL) applyFilters(query *gorm.DB, filters repositories.SurveyResponseFilters) *gorm.DB {
	if filters.PurchaseType != "" {
		query = query.Where("purchase_type = ?", filters.PurchaseType)
	}
	if filters.City != "" {
		query = query.Where("city = ?", filters.City)
	}
	if filters.Brand != "" {
		query = query.Where("brand = ?", filters.Brand)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
