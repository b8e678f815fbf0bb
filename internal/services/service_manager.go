package services

import (
	"log/slog"
	"time"

	"github.com/mintsurvey/survey-service/internal/cache"
	"github.com/mintsurvey/survey-service/internal/events"
	"github.com/mintsurvey/survey-service/internal/recaptcha"
	"github.com/mintsurvey/survey-service/internal/repositories"
	"github.com/mintsurvey/survey-service/internal/sessions"
	"github.com/mintsurvey/survey-service/internal/survey"
	"github.com/mintsurvey/survey-service/internal/validator"
)

// ServiceManager exposes every service the handlers use.
type ServiceManager interface {
	Submission() SubmissionService
	Session() SessionService
	Export() ExportService
}

type Dependencies struct {
	Repository   repositories.Repository
	Cache        cache.CacheService
	CacheTTL     time.Duration
	Publisher    events.EventPublisher
	Verifier     recaptcha.Verifier
	Validator    *validator.Validator
	SessionStore sessions.Store
	Builder      *survey.Builder
	Submitters   SubmitterFactory
	Logger       *slog.Logger
	Debug        bool
}

type serviceManager struct {
	submission SubmissionService
	session    SessionService
	export     ExportService
}

func NewServiceManager(deps Dependencies) ServiceManager {
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Builder == nil {
		deps.Builder = survey.NewBuilder(nil, nil)
	}
	submission := NewSubmissionService(
		deps.Repository,
		deps.Cache,
		deps.CacheTTL,
		deps.Publisher,
		deps.Verifier,
		deps.Validator,
		deps.Logger,
		deps.Debug,
	)
	// Hosted sessions submit in process unless a factory is supplied.
	if deps.Submitters == nil {
		deps.Submitters = LocalSubmitters(submission, nil)
	}
	return &serviceManager{
		submission: submission,
		session:    NewSessionService(deps.SessionStore, deps.Builder, deps.Submitters, deps.Logger, deps.Debug),
		export:     NewExportService(deps.Repository, deps.Logger),
	}
}

func (m *serviceManager) Submission() SubmissionService { return m.submission }
func (m *serviceManager) Session() SessionService       { return m.session }
func (m *serviceManager) Export() ExportService         { return m.export }
