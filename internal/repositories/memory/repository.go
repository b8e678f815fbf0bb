// Package memory keeps survey responses in process. It backs STORAGE=memory
// and the handler tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mintsurvey/survey-service/internal/models"
	"github.com/mintsurvey/survey-service/internal/repositories"
	"gorm.io/gorm"
)

type Repository struct {
	responses *SurveyResponseRepository
}

func NewRepository() *Repository {
	return &Repository{responses: NewSurveyResponseRepository(time.Now)}
}

func (r *Repository) SurveyResponse() repositories.SurveyResponseRepository { return r.responses }

// Responses returns the concrete store, for tests that set FailWith.
func (r *Repository) Responses() *SurveyResponseRepository { return r.responses }

func (r *Repository) Transaction(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (r *Repository) Close() error { return nil }

type SurveyResponseRepository struct {
	mu        sync.RWMutex
	responses []models.SurveyResponse
	now       func() time.Time
	// FailWith makes every Create fail. Used to exercise persistence errors.
	FailWith error
}

func NewSurveyResponseRepository(now func() time.Time) *SurveyResponseRepository {
	return &SurveyResponseRepository{now: now}
}

func (s *SurveyResponseRepository) Create(_ context.Context, _ *gorm.DB, response *models.SurveyResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return s.FailWith
	}
	if response.ID == "" {
		response.ID = uuid.NewString()
	}
	now := s.now().UTC()
	if response.CreatedAt.IsZero() {
		response.CreatedAt = now
	}
	response.UpdatedAt = now

	stored := *response
	stored.RecommendReason = slices.Clone(response.RecommendReason)
	s.responses = append(s.responses, stored)
	return nil
}

func (s *SurveyResponseRepository) GetByID(_ context.Context, _ *gorm.DB, id string) (*models.SurveyResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.responses {
		if s.responses[i].ID == id {
			found := s.responses[i]
			return &found, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *SurveyResponseRepository) List(_ context.Context, _ *gorm.DB, filters repositories.SurveyResponseFilters) ([]*models.SurveyResponse, int64, error) {
	filters = repositories.NormalizeFilters(filters)

	s.mu.RLock()
	var matched []*models.SurveyResponse
	for i := range s.responses {
		if matches(&s.responses[i], filters) {
			r := s.responses[i]
			matched = append(matched, &r)
		}
	}
	s.mu.RUnlock()

	slices.SortStableFunc(matched, func(a, b *models.SurveyResponse) int {
		c := compare(a, b, filters.SortBy)
		if filters.SortOrder == "desc" {
			return -c
		}
		return c
	})

	total := int64(len(matched))
	start := min(filters.Offset, len(matched))
	end := min(start+filters.Limit, len(matched))
	return matched[start:end], total, nil
}

func (s *SurveyResponseRepository) Count(context.Context, *gorm.DB) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.responses)), nil
}

func (s *SurveyResponseRepository) Stats(context.Context, *gorm.DB) (*repositories.SurveyStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &repositories.SurveyStats{TotalResponses: int64(len(s.responses))}
	counts := map[string]int64{}
	var recommend, satisfaction, repurchase average
	for _, r := range s.responses {
		counts[r.PurchaseType]++
		if r.PurchaseType == models.NoneOfTheAbove {
			continue
		}
		stats.VehicleOwners++
		recommend.add(r.RecommendLikelihood)
		satisfaction.add(r.SatisfactionLevel)
		repurchase.add(r.RepurchaseLikelihood)
	}
	stats.AverageRecommend = recommend.value()
	stats.AverageSatisfaction = satisfaction.value()
	stats.AverageRepurchase = repurchase.value()

	for purchaseType, count := range counts {
		stats.ResponsesByPurchaseType = append(stats.ResponsesByPurchaseType, repositories.PurchaseTypeCount{
			PurchaseType: purchaseType,
			Count:        count,
		})
	}
	slices.SortFunc(stats.ResponsesByPurchaseType, func(a, b repositories.PurchaseTypeCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.PurchaseType, b.PurchaseType)
	})
	return stats, nil
}

type average struct {
	sum, n int
}

func (a *average) add(v *int) {
	if v != nil {
		a.sum += *v
		a.n++
	}
}

func (a average) value() float64 {
	if a.n == 0 {
		return 0
	}
	return float64(a.sum) / float64(a.n)
}

func matches(r *models.SurveyResponse, f repositories.SurveyResponseFilters) bool {
	switch {
	case f.PurchaseType != "" && r.PurchaseType != f.PurchaseType:
		return false
	case f.City != "" && r.City != f.City:
		return false
	case f.Brand != "" && r.Brand != f.Brand:
		return false
	case f.DateFrom != nil && r.CreatedAt.Before(*f.DateFrom):
		return false
	case f.DateTo != nil && r.CreatedAt.After(*f.DateTo):
		return false
	}
	return true
}

func compare(a, b *models.SurveyResponse, sortBy string) int {
	switch sortBy {
	case "name":
		return cmp.Compare(a.Name, b.Name)
	case "city":
		return cmp.Compare(a.City, b.City)
	case "purchase_type":
		return cmp.Compare(a.PurchaseType, b.PurchaseType)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}
