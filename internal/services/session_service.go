package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mintsurvey/survey-service/internal/sessions"
	"github.com/mintsurvey/survey-service/internal/survey"
)

// SubmitterFactory returns the submitter for one submit click. token is the
// verification token the browser obtained for that click and clientIP the
// address it came from.
type SubmitterFactory func(token, clientIP string) survey.Submitter

// defaultSubmitTimeout bounds one delivery. A stored session still in flight
// for longer is released on its next event.
const defaultSubmitTimeout = 30 * time.Second

// SessionResult is returned by every wizard operation.
type SessionResult struct {
	View    survey.View `json:"view"`
	Outcome string      `json:"outcome"`
}

const (
	OutcomeStay     = "stay"
	OutcomeAdvanced = "advanced"
	// OutcomeSubmit asks the client to submit now.
	OutcomeSubmit = "submit"
)

// SessionService drives hosted wizard sessions. Events for one session are
// applied one at a time.
type SessionService interface {
	Create(ctx context.Context) (*SessionResult, error)
	Get(ctx context.Context, id string) (*SessionResult, error)
	Consent(ctx context.Context, id string, agree bool) (*SessionResult, error)
	SetField(ctx context.Context, id string, field survey.Field, value string) (*SessionResult, error)
	TogglePurchaseType(ctx context.Context, id, label string) (*SessionResult, error)
	ToggleReason(ctx context.Context, id, reason string) (*SessionResult, error)
	Next(ctx context.Context, id string) (*SessionResult, error)
	Submit(ctx context.Context, id, token, clientIP string) (*SessionResult, error)
}

type sessionService struct {
	store      sessions.Store
	locks      *sessions.Locker
	builder    *survey.Builder
	submitters SubmitterFactory
	cfg        survey.Config
	logger     *ServiceLogger
	newID      func() string

	submitTimeout time.Duration
}

func NewSessionService(
	store sessions.Store,
	builder *survey.Builder,
	submitters SubmitterFactory,
	logger *slog.Logger,
	debug bool,
) SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &sessionService{
		store:      store,
		locks:      sessions.NewLocker(),
		builder:    builder,
		submitters: submitters,
		cfg:        survey.Config{Debug: debug, Logger: logger},
		logger: NewServiceLogger(logger, LogConfig{
			Service:     "survey-service",
			Component:   "session",
			EnableDebug: debug,
		}),
		newID:         uuid.NewString,
		submitTimeout: defaultSubmitTimeout,
	}
}

func (s *sessionService) Create(ctx context.Context) (*SessionResult, error) {
	sess := survey.NewSession(s.newID(), s.builder, s.cfg)
	if err := s.store.Save(ctx, sess.Snapshot()); err != nil {
		return nil, err
	}
	s.logger.Debug(ctx, "Session created", "session_id", sess.ID())
	return newSessionResult(sess, survey.OutcomeStay), nil
}

func (s *sessionService) Get(ctx context.Context, id string) (*SessionResult, error) {
	sess, err := s.load(ctx, id, true)
	if err != nil {
		return nil, err
	}
	return newSessionResult(sess, survey.OutcomeStay), nil
}

func (s *sessionService) Consent(ctx context.Context, id string, agree bool) (*SessionResult, error) {
	return s.update(ctx, id, "consent", func(sess *survey.Session) (survey.Outcome, error) {
		if agree {
			return survey.OutcomeStay, sess.Agree()
		}
		return survey.OutcomeStay, sess.Disagree()
	})
}

func (s *sessionService) SetField(ctx context.Context, id string, field survey.Field, value string) (*SessionResult, error) {
	return s.update(ctx, id, "set_field", func(sess *survey.Session) (survey.Outcome, error) {
		return sess.SetField(field, value)
	})
}

func (s *sessionService) TogglePurchaseType(ctx context.Context, id, label string) (*SessionResult, error) {
	return s.update(ctx, id, "toggle_purchase_type", func(sess *survey.Session) (survey.Outcome, error) {
		return sess.TogglePurchaseType(label)
	})
}

func (s *sessionService) ToggleReason(ctx context.Context, id, reason string) (*SessionResult, error) {
	return s.update(ctx, id, "toggle_reason", func(sess *survey.Session) (survey.Outcome, error) {
		return sess.ToggleReason(reason)
	})
}

func (s *sessionService) Next(ctx context.Context, id string) (*SessionResult, error) {
	return s.update(ctx, id, "next", func(sess *survey.Session) (survey.Outcome, error) {
		return sess.Next()
	})
}

// Submit marks the session in flight, delivers the record without holding
// the session lock and then records the result. Events that arrive while the
// record is being delivered are rejected as conflicts.
func (s *sessionService) Submit(ctx context.Context, id, token, clientIP string) (*SessionResult, error) {
	var pending *survey.Pending
	res, err := s.update(ctx, id, "begin_submit", func(sess *survey.Session) (survey.Outcome, error) {
		p, err := sess.BeginSubmit()
		pending = p
		return survey.OutcomeStay, err
	})
	if err != nil || pending == nil {
		return res, err
	}

	submitErr := s.deliver(ctx, s.submitters(token, clientIP), pending.Record)

	return s.update(context.WithoutCancel(ctx), id, opCompleteSubmit, func(sess *survey.Session) (survey.Outcome, error) {
		sess.CompleteSubmit(pending, submitErr)
		return survey.OutcomeStay, nil
	})
}

const opCompleteSubmit = "complete_submit"

// deliver runs the submitter under the submit timeout. A panicking submitter
// counts as a failed submission.
func (s *sessionService) deliver(ctx context.Context, sub survey.Submitter, rec survey.AnswerRecord) (err error) {
	ctx, cancel := context.WithTimeout(ctx, s.submitTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: submitter panicked: %v", ErrInternalError, r)
		}
	}()
	return sub.Submit(ctx, rec)
}

// load restores a session. releaseStale ends a submission whose result never
// came back within the submit timeout.
func (s *sessionService) load(ctx context.Context, id string, releaseStale bool) (*survey.Session, error) {
	snap, err := s.store.Get(ctx, id)
	if errors.Is(err, sessions.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	sess := survey.Restore(snap, s.builder, s.cfg)
	if releaseStale && sess.ReleaseStaleSubmit(s.submitTimeout) {
		s.logger.Warn(ctx, "Released stale submission", "session_id", id)
	}
	return sess, nil
}

// update applies fn under the session lock and saves the result. A record
// that fails validation is still saved so the view can show the errors.
func (s *sessionService) update(ctx context.Context, id, operation string, fn func(*survey.Session) (survey.Outcome, error)) (res *SessionResult, err error) {
	start := time.Now()
	defer func() {
		if err != nil {
			s.logger.LogOperation(ctx, operation, id, time.Since(start), err)
		}
	}()

	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.load(ctx, id, operation != opCompleteSubmit)
	if err != nil {
		return nil, err
	}

	outcome, ferr := fn(sess)
	if ferr != nil && !errors.Is(ferr, survey.ErrValidationFailed) {
		return nil, sessionError(ferr)
	}

	if err := s.store.Save(ctx, sess.Snapshot()); err != nil {
		return nil, err
	}
	s.logger.Debug(ctx, "Session updated", "session_id", id, "operation", operation, "outcome", outcomeName(outcome))
	return newSessionResult(sess, outcome), nil
}

func sessionError(err error) error {
	switch {
	case errors.Is(err, survey.ErrNotInSurvey),
		errors.Is(err, survey.ErrAlreadyAnswered),
		errors.Is(err, survey.ErrSubmissionInFlight),
		errors.Is(err, survey.ErrSubmitUnavailable):
		return fmt.Errorf("%w: %w", ErrSessionConflict, err)
	case errors.Is(err, survey.ErrUnknownField),
		errors.Is(err, survey.ErrFieldNotVisible),
		errors.Is(err, survey.ErrInvalidOption):
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return err
}

func newSessionResult(sess *survey.Session, outcome survey.Outcome) *SessionResult {
	return &SessionResult{View: sess.View(), Outcome: outcomeName(outcome)}
}

func outcomeName(o survey.Outcome) string {
	switch o {
	case survey.OutcomeAdvanced:
		return OutcomeAdvanced
	case survey.OutcomeSubmit:
		return OutcomeSubmit
	default:
		return OutcomeStay
	}
}
