package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/mintsurvey/survey-service/internal/cache"
	apperrors "github.com/mintsurvey/survey-service/internal/errors"
	"github.com/mintsurvey/survey-service/internal/events"
	"github.com/mintsurvey/survey-service/internal/models"
	"github.com/mintsurvey/survey-service/internal/recaptcha"
	"github.com/mintsurvey/survey-service/internal/repositories"
	"github.com/mintsurvey/survey-service/internal/validator"
	"gorm.io/gorm"
)

const (
	tracerName           = "github.com/mintsurvey/survey-service/internal/services"
	responsesCachePrefix = "responses:"
)

// SubmissionService accepts survey submissions and serves stored responses.
type SubmissionService interface {
	Submit(ctx context.Context, req *models.SubmissionRequest, remoteIP string) (*models.SurveyResponse, error)
	Get(ctx context.Context, id string) (*models.SurveyResponse, error)
	List(ctx context.Context, filters repositories.SurveyResponseFilters) ([]*models.SurveyResponse, int64, error)
	Stats(ctx context.Context) (*repositories.SurveyStats, error)
}

type submissionService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	cacheTTL  time.Duration
	publisher events.EventPublisher
	verifier  recaptcha.Verifier
	validator *validator.Validator
	logger    *ServiceLogger
	now       func() time.Time
}

func NewSubmissionService(
	repo repositories.Repository,
	cacheService cache.CacheService,
	cacheTTL time.Duration,
	publisher events.EventPublisher,
	verifier recaptcha.Verifier,
	validator *validator.Validator,
	logger *slog.Logger,
	debug bool,
) SubmissionService {
	if verifier == nil {
		verifier = recaptcha.NoopVerifier{}
	}
	if publisher == nil {
		publisher = events.NoopEventPublisher{}
	}
	return &submissionService{
		repo:      repo,
		cache:     cacheService,
		cacheTTL:  cacheTTL,
		publisher: publisher,
		verifier:  verifier,
		validator: validator,
		logger: NewServiceLogger(logger, LogConfig{
			Service:     "survey-service",
			Component:   "submission",
			EnableDebug: debug,
		}),
		now: time.Now,
	}
}

// Submit validates, verifies and stores one submission. Cache invalidation
// and event publishing failures are logged and do not fail the request.
func (s *submissionService) Submit(ctx context.Context, req *models.SubmissionRequest, remoteIP string) (resp *models.SurveyResponse, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "SubmissionService.Submit")
	start := time.Now()
	defer func() {
		id := ""
		if resp != nil {
			id = resp.ID
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		s.logger.LogOperation(ctx, "submit", id, time.Since(start), err)
	}()

	if err := s.validate(req); err != nil {
		return nil, err
	}

	if err := s.verifier.Verify(ctx, req.RecaptchaToken, remoteIP); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	resp = models.NewSurveyResponse(req)
	err = s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		return s.repo.SurveyResponse().Create(ctx, tx, resp)
	})
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}
	span.SetAttributes(
		attribute.String("survey.response_id", resp.ID),
		attribute.String("survey.purchase_type", resp.PurchaseType),
	)

	if s.cache != nil {
		if cerr := s.cache.DeletePattern(ctx, responsesCachePrefix+"*"); cerr != nil {
			s.logger.Warn(ctx, "Failed to invalidate response cache", "error", cerr)
		}
	}

	event := events.NewSurveyEvent(events.EventSurveySubmitted, events.SurveySubmittedEvent{
		ResponseID:          resp.ID,
		PurchaseType:        resp.PurchaseType,
		City:                resp.City,
		Brand:               resp.Brand,
		VehicleModel:        resp.VehicleModel,
		RecommendLikelihood: resp.RecommendLikelihood,
		SubmittedAt:         resp.CreatedAt,
	}, s.now())
	if perr := s.publisher.PublishSurveyEvent(ctx, event); perr != nil {
		s.logger.Warn(ctx, "Failed to publish survey event", "response_id", resp.ID, "error", perr)
	}

	return resp, nil
}

// validate applies the conditional required-field rules first, then the
// format rules carried in struct tags.
func (s *submissionService) validate(req *models.SubmissionRequest) error {
	if missing := s.validator.Submission().MissingFields(req); len(missing) > 0 {
		return NewMissingFieldsError(missing)
	}
	if err := s.validator.ValidateStruct(req); err != nil {
		fields := apperrors.ToValidationErrors(err)
		if len(fields) == 0 {
			return &PayloadError{Details: err.Error()}
		}
		return &PayloadError{Details: fields.Details(), Fields: fields}
	}
	return nil
}

func (s *submissionService) Get(ctx context.Context, id string) (*models.SurveyResponse, error) {
	resp, err := s.repo.SurveyResponse().GetByID(ctx, nil, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: survey response %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get survey response: %w", err)
	}
	return resp, nil
}

type cachedPage struct {
	Items []*models.SurveyResponse `json:"items"`
	Total int64                    `json:"total"`
}

func (s *submissionService) List(ctx context.Context, filters repositories.SurveyResponseFilters) ([]*models.SurveyResponse, int64, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "SubmissionService.List")
	defer span.End()

	filters = repositories.NormalizeFilters(filters)
	key := s.listCacheKey(filters)

	if s.cache != nil && key != "" {
		var page cachedPage
		if err := s.cache.Get(ctx, key, &page); err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return page.Items, page.Total, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn(ctx, "Response cache read failed", "error", err)
		}
	}

	items, total, err := s.repo.SurveyResponse().List(ctx, nil, filters)
	if err != nil {
		span.RecordError(err)
		return nil, 0, fmt.Errorf("failed to list survey responses: %w", err)
	}
	if items == nil {
		items = []*models.SurveyResponse{}
	}

	if s.cache != nil && key != "" {
		if err := s.cache.Set(ctx, key, cachedPage{Items: items, Total: total}, s.cacheTTL); err != nil {
			s.logger.Warn(ctx, "Response cache write failed", "error", err)
		}
	}
	return items, total, nil
}

func (s *submissionService) listCacheKey(filters repositories.SurveyResponseFilters) string {
	data, err := json.Marshal(filters)
	if err != nil {
		return ""
	}
	return responsesCachePrefix + "list:" + string(data)
}

func (s *submissionService) Stats(ctx context.Context) (*repositories.SurveyStats, error) {
	stats, err := s.repo.SurveyResponse().Stats(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to compute survey stats: %w", err)
	}
	return stats, nil
}
