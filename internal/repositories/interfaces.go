package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/mintsurvey/survey-service/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup matches no stored response.
var ErrNotFound = errors.New("record not found")

// ===== SHARED FILTER STRUCTS =====

type SurveyResponseFilters struct {
	PurchaseType string     `json:"purchase_type"`
	City         string     `json:"city"`
	Brand        string     `json:"brand"`
	DateFrom     *time.Time `json:"date_from"`
	DateTo       *time.Time `json:"date_to"`
	Limit        int        `json:"limit"`
	Offset       int        `json:"offset"`
	SortBy       string     `json:"sort_by"`    // "created_at", "name", "city", "purchase_type"
	SortOrder    string     `json:"sort_order"` // "asc", "desc"
}

// ===== SHARED STATISTICS STRUCTS =====

type PurchaseTypeCount struct {
	PurchaseType string `json:"purchaseType"`
	Count        int64  `json:"count"`
}

type SurveyStats struct {
	TotalResponses          int64               `json:"totalResponses"`
	VehicleOwners           int64               `json:"vehicleOwners"`
	AverageRecommend        float64             `json:"averageRecommend"`
	AverageSatisfaction     float64             `json:"averageSatisfaction"`
	AverageRepurchase       float64             `json:"averageRepurchase"`
	ResponsesByPurchaseType []PurchaseTypeCount `json:"responsesByPurchaseType"`
}

// SurveyResponseRepository stores submitted surveys. A nil tx uses the
// repository's own connection.
type SurveyResponseRepository interface {
	Create(ctx context.Context, tx *gorm.DB, response *models.SurveyResponse) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.SurveyResponse, error)
	List(ctx context.Context, tx *gorm.DB, filters SurveyResponseFilters) ([]*models.SurveyResponse, int64, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
	Stats(ctx context.Context, tx *gorm.DB) (*SurveyStats, error)
}

// Repository groups the repositories of one storage backend.
type Repository interface {
	SurveyResponse() SurveyResponseRepository
	// Transaction runs fn inside a database transaction. Backends without
	// transactions call fn with a nil tx.
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	Close() error
}

// NormalizeFilters applies the default page size and sort order.
func NormalizeFilters(f SurveyResponseFilters) SurveyResponseFilters {
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	switch f.SortBy {
	case "created_at", "name", "city", "purchase_type":
	default:
		f.SortBy = "created_at"
	}
	if f.SortOrder != "asc" {
		f.SortOrder = "desc"
	}
	return f
}

const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)
