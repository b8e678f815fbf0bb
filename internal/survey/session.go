package survey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/mintsurvey/survey-service/internal/catalog"
)

// Stage is the coarse state of a session.
type Stage string

const (
	StageConsent   Stage = "consent"
	StageSurvey    Stage = "survey"
	StageDeclined  Stage = "declined"
	StageSubmitted Stage = "submitted"
)

// Outcome tells the caller what an event led to.
type Outcome int

const (
	// OutcomeStay keeps the cursor where it was.
	OutcomeStay Outcome = iota
	// OutcomeAdvanced moved the cursor to the next question.
	OutcomeAdvanced
	// OutcomeSubmit means the record passed full validation at the
	// "None of the above" short-circuit and should be submitted now with
	// BeginSubmit.
	OutcomeSubmit
)

var (
	ErrNotInSurvey        = errors.New("survey is not in progress")
	ErrAlreadyAnswered    = errors.New("consent already given")
	ErrSubmissionInFlight = errors.New("submission already in flight")
	ErrUnknownField       = errors.New("unknown field")
	ErrFieldNotVisible    = errors.New("field belongs to a question that is not shown yet")
	ErrInvalidOption      = errors.New("value is not one of the available options")
	ErrValidationFailed   = errors.New("validation failed")
	ErrSubmitUnavailable  = errors.New("submit is not available at this point")
)

const submitFailedMessage = "Submission failed. Please try again."

// Submitter delivers a finished record.
type Submitter interface {
	Submit(ctx context.Context, rec AnswerRecord) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, rec AnswerRecord) error

func (f SubmitterFunc) Submit(ctx context.Context, rec AnswerRecord) error { return f(ctx, rec) }

// Config controls a session.
type Config struct {
	// Debug logs every transition at debug level.
	Debug  bool
	Logger *slog.Logger
	// Now stamps the start of a submission. Defaults to time.Now.
	Now func() time.Time
}

// Snapshot is the serialisable state of a session.
type Snapshot struct {
	ID       string       `json:"id"`
	Stage    Stage        `json:"stage"`
	Record   AnswerRecord `json:"record"`
	Position FlowPosition `json:"position"`
	InFlight bool         `json:"inFlight"`
	// SubmitStartedAt is set while InFlight.
	SubmitStartedAt time.Time `json:"submitStartedAt"`
}

// Session is the flow controller for one respondent. It is not safe for
// concurrent use.
type Session struct {
	id       string
	builder  *Builder
	cfg      Config
	stage    Stage
	record   AnswerRecord
	pos      FlowPosition
	inFlight bool
	started  time.Time
}

// NewSession starts a session at the consent stage.
func NewSession(id string, builder *Builder, cfg Config) *Session {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Session{
		id:      id,
		builder: builder,
		cfg:     cfg,
		stage:   StageConsent,
		pos:     newPosition(),
	}
}

// Restore rebuilds a session from a snapshot.
func Restore(snap Snapshot, builder *Builder, cfg Config) *Session {
	s := NewSession(snap.ID, builder, cfg)
	s.stage = snap.Stage
	s.record = snap.Record.Clone()
	s.pos = snap.Position.clone()
	s.inFlight = snap.InFlight
	s.started = snap.SubmitStartedAt
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) Stage() Stage { return s.stage }

// Record returns a copy of the answers collected so far.
func (s *Session) Record() AnswerRecord { return s.record.Clone() }

func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		ID:       s.id,
		Stage:    s.stage,
		Record:   s.record.Clone(),
		Position: s.pos.clone(),
		InFlight: s.inFlight,

		SubmitStartedAt: s.started,
	}
}

// View renders the session.
func (s *Session) View() View {
	v := s.builder.Recompute(&s.record, &s.pos)
	v.SessionID = s.id
	v.Stage = s.stage
	v.InFlight = s.inFlight
	if s.stage != StageSurvey {
		v.Questions = nil
		v.ShowNext = false
		v.ShowSubmit = false
		v.Progress = s.pos.Progress
	}
	return v
}

// Agree accepts the consent notice and starts the survey at question one.
func (s *Session) Agree() error {
	if s.stage != StageConsent {
		return ErrAlreadyAnswered
	}
	s.stage = StageSurvey
	s.pos = newPosition()
	s.debug("consent given")
	return nil
}

// Disagree ends the session without collecting anything.
func (s *Session) Disagree() error {
	if s.stage != StageConsent {
		return ErrAlreadyAnswered
	}
	s.stage = StageDeclined
	s.debug("consent declined")
	return nil
}

// SetField changes a scalar answer. Choice fields must hold one of the
// options currently offered; the empty string clears a field.
func (s *Session) SetField(f Field, value string) (Outcome, error) {
	if err := s.editable(); err != nil {
		return OutcomeStay, err
	}
	target := s.record.scalar(f)
	if target == nil {
		return OutcomeStay, fmt.Errorf("%w: %s", ErrUnknownField, f)
	}
	if err := s.checkVisible(fieldQuestions[f]); err != nil {
		return OutcomeStay, err
	}
	if options := s.builder.Options(f, &s.record); options != nil && value != "" && !slices.Contains(options, value) {
		return OutcomeStay, fmt.Errorf("%w: %q for %s", ErrInvalidOption, value, f)
	}

	previous := *target
	*target = value
	s.applyCompanions(f, previous, value)

	s.pos.Errors.clear(f, FieldForm)
	if f == FieldPurchaseMonth || f == FieldPurchaseYear {
		s.pos.Errors.clear(FieldPurchaseMonth, FieldPurchaseYear)
	}
	if owner, ok := owners[f]; ok && value != "" {
		s.pos.Interacted[owner] = s.choiceComplete(owner)
	}

	s.normalize()
	s.debug("field changed", "field", f)
	return s.autoAdvance()
}

// TogglePurchaseType adds or removes a purchase type. "None of the above"
// replaces every other selection and any other type removes it.
func (s *Session) TogglePurchaseType(label string) (Outcome, error) {
	if err := s.editable(); err != nil {
		return OutcomeStay, err
	}
	if err := s.checkVisible(QuestionPurchaseTypes); err != nil {
		return OutcomeStay, err
	}
	if !slices.Contains(catalog.PurchaseTypes, label) {
		return OutcomeStay, fmt.Errorf("%w: %q", ErrInvalidOption, label)
	}

	types := s.record.PurchaseTypes
	switch {
	case slices.Contains(types, label):
		types = slices.DeleteFunc(slices.Clone(types), func(t string) bool { return t == label })
	case label == catalog.NoneOfTheAbove:
		types = []string{label}
	default:
		types = slices.DeleteFunc(slices.Clone(types), func(t string) bool { return t == catalog.NoneOfTheAbove })
		types = append(types, label)
	}
	s.record.PurchaseTypes = types

	s.pos.Errors.clear(FieldPurchaseTypes, FieldForm)
	s.pos.Interacted[QuestionPurchaseTypes] = true
	s.normalize()
	s.debug("purchase types changed", "types", types)
	return s.autoAdvance()
}

// ToggleReason adds or removes a recommendation reason from the vocabulary
// matching the current rating.
func (s *Session) ToggleReason(reason string) (Outcome, error) {
	if err := s.editable(); err != nil {
		return OutcomeStay, err
	}
	if err := s.checkVisible(QuestionRecommendReasons); err != nil {
		return OutcomeStay, err
	}
	if !slices.Contains(catalog.Reasons(s.record.RecommendLikelihood), reason) {
		return OutcomeStay, fmt.Errorf("%w: %q", ErrInvalidOption, reason)
	}

	reasons := s.record.RecommendReasons
	if slices.Contains(reasons, reason) {
		reasons = slices.DeleteFunc(slices.Clone(reasons), func(r string) bool { return r == reason })
	} else {
		reasons = append(slices.Clone(reasons), reason)
	}
	s.record.RecommendReasons = reasons
	if reason == catalog.Other {
		s.record.CustomReason = ""
	}

	s.pos.Errors.clear(FieldRecommendReasons, FieldCustomReason, FieldForm)
	s.pos.Interacted[QuestionRecommendReasons] = true
	s.normalize()
	s.debug("reasons changed", "reasons", reasons)
	return s.autoAdvance()
}

// Next validates the current question and moves on.
func (s *Session) Next() (Outcome, error) {
	if err := s.editable(); err != nil {
		return OutcomeStay, err
	}
	id, ok := s.current()
	if !ok {
		return OutcomeStay, ErrNotInSurvey
	}
	s.pos.Interacted[id] = true
	if errs := ValidateQuestion(id, &s.record); errs != nil {
		s.pos.Errors.merge(errs)
		s.debug("question invalid", "question", id, "errors", errs)
		return OutcomeStay, ErrValidationFailed
	}
	return s.advance()
}

// Pending is a submission that has been started and not yet completed.
type Pending struct {
	Record AnswerRecord
}

// BeginSubmit validates the whole record and marks the session in flight.
// Until CompleteSubmit is called every other event is rejected.
func (s *Session) BeginSubmit() (*Pending, error) {
	if err := s.editable(); err != nil {
		return nil, err
	}
	ids := QuestionIDs(&s.record)
	index := clampIndex(s.pos.Index, len(ids))
	if !submitVisible(ids, index, &s.record) {
		return nil, ErrSubmitUnavailable
	}
	return s.begin()
}

func (s *Session) begin() (*Pending, error) {
	if errs := Validate(&s.record); errs != nil {
		s.pos.Errors = errs
		s.debug("submission blocked", "errors", errs)
		return nil, ErrValidationFailed
	}
	s.inFlight = true
	s.started = s.cfg.Now()
	s.debug("submission started")
	return &Pending{Record: s.record.Clone()}, nil
}

// CompleteSubmit records the result of a submission started by BeginSubmit.
// On success the session is reset; on failure the answers are kept and the
// error becomes the form-level message.
func (s *Session) CompleteSubmit(p *Pending, err error) {
	if p == nil || !s.inFlight {
		return
	}
	s.inFlight = false
	s.started = time.Time{}
	if err != nil {
		s.pos.Errors[FieldForm] = UserMessage(err)
		s.cfg.Logger.Warn("survey submission failed", "session_id", s.id, "error", err)
		return
	}
	s.stage = StageSubmitted
	s.record = AnswerRecord{}
	s.pos = newPosition()
	s.pos.Progress = 100
	s.debug("submission succeeded")
}

// Submit runs BeginSubmit, the submitter and CompleteSubmit in sequence.
func (s *Session) Submit(ctx context.Context, sub Submitter) error {
	p, err := s.BeginSubmit()
	if err != nil {
		return err
	}
	err = sub.Submit(ctx, p.Record)
	s.CompleteSubmit(p, err)
	return err
}

// ReleaseStaleSubmit ends a submission that started at least timeout ago
// without a result, keeping the answers so the respondent can retry. It
// reports whether a submission was released.
func (s *Session) ReleaseStaleSubmit(timeout time.Duration) bool {
	if !s.inFlight || timeout <= 0 || s.cfg.Now().Sub(s.started) < timeout {
		return false
	}
	s.inFlight = false
	s.started = time.Time{}
	s.pos.Errors[FieldForm] = submitFailedMessage
	s.cfg.Logger.Warn("stale survey submission released", "session_id", s.id, "timeout", timeout)
	return true
}

// UserMessage extracts the message a failed submission shows to the
// respondent.
func UserMessage(err error) string {
	var um interface{ UserMessage() string }
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return submitFailedMessage
}

func (s *Session) editable() error {
	if s.stage != StageSurvey {
		return ErrNotInSurvey
	}
	if s.inFlight {
		return ErrSubmissionInFlight
	}
	return nil
}

func (s *Session) current() (QuestionID, bool) {
	ids := QuestionIDs(&s.record)
	if len(ids) == 0 {
		return "", false
	}
	s.pos.Index = clampIndex(s.pos.Index, len(ids))
	return ids[s.pos.Index], true
}

func (s *Session) checkVisible(id QuestionID) error {
	ids := QuestionIDs(&s.record)
	i := slices.Index(ids, id)
	if i < 0 || i > clampIndex(s.pos.Index, len(ids)) {
		return fmt.Errorf("%w: %s", ErrFieldNotVisible, id)
	}
	return nil
}

// choiceComplete is true once every choice of a question has a value.
func (s *Session) choiceComplete(id QuestionID) bool {
	r := &s.record
	switch id {
	case QuestionPurchaseDate:
		return r.PurchaseMonth != "" && r.PurchaseYear != ""
	case QuestionAlternativeBrand:
		return r.AlternativeBrand != "" && r.AlternativeModel != ""
	}
	for f, owner := range owners {
		if owner == id {
			if v, _ := r.Value(f); v == "" {
				return false
			}
		}
	}
	return true
}

// applyCompanions clears the answers that depend on a changed field.
func (s *Session) applyCompanions(f Field, previous, value string) {
	r := &s.record
	switch f {
	case FieldCity:
		if value != catalog.Other {
			r.OtherCity = ""
		}
	case FieldBrand:
		if value != previous {
			r.CustomBrand = ""
			r.clearModel()
		}
	case FieldVehicleModel:
		if value != catalog.Other {
			r.CustomModel = ""
		}
	case FieldAlternativeBrand:
		if value != previous {
			r.CustomAlternativeBrand = ""
			r.AlternativeModel = ""
			r.CustomAlternativeModel = ""
		}
	case FieldAlternativeModel:
		if value != catalog.OtherSpecify {
			r.CustomAlternativeModel = ""
		}
	}
}

// normalize restores the record invariants after a change: the sentinel
// clears vehicle details, brands and models must exist for the
// highest-priority type, and reasons must belong to the active vocabulary.
// An empty purchase-type set hides the vehicle answers but keeps them.
func (s *Session) normalize() {
	r := &s.record
	defer func() {
		s.pos.Index = clampIndex(s.pos.Index, len(QuestionIDs(r)))
	}()
	if r.NoneSelected() {
		r.clearVehicleDetails()
		return
	}
	if len(r.PurchaseTypes) == 0 {
		return
	}

	cat := s.builder.Catalog()
	key := catalog.Normalize(r.HighestPurchaseType())
	brands := cat.Brands(key)

	if r.Brand != "" && !slices.Contains(brands, r.Brand) {
		r.clearBrand()
	} else if r.VehicleModel != "" && !slices.Contains(cat.Models(key, r.Brand), r.VehicleModel) {
		r.clearModel()
	}

	if r.AlternativeBrand != "" && !slices.Contains(brands, r.AlternativeBrand) {
		r.clearAlternative()
	} else if r.AlternativeModel != "" && !slices.Contains(cat.AlternativeModels(key, r.AlternativeBrand), r.AlternativeModel) {
		r.AlternativeModel = ""
		r.CustomAlternativeModel = ""
	}

	vocabulary := catalog.Reasons(r.RecommendLikelihood)
	if len(r.RecommendReasons) > 0 {
		r.RecommendReasons = slices.DeleteFunc(slices.Clone(r.RecommendReasons), func(reason string) bool {
			return !slices.Contains(vocabulary, reason)
		})
	}
	if !slices.Contains(r.RecommendReasons, catalog.Other) {
		r.CustomReason = ""
	}
}

// autoAdvance moves past a single-choice question once it has been answered
// and is valid.
func (s *Session) autoAdvance() (Outcome, error) {
	id, ok := s.current()
	if !ok || !IsSingleChoice(id) || !s.pos.Interacted[id] {
		return OutcomeStay, nil
	}
	if errs := ValidateQuestion(id, &s.record); errs != nil {
		s.pos.Errors.merge(errs)
		return OutcomeStay, nil
	}
	return s.advance()
}

func (s *Session) advance() (Outcome, error) {
	ids := QuestionIDs(&s.record)
	index := clampIndex(s.pos.Index, len(ids))

	if shortCircuit(ids, index, &s.record) {
		if errs := Validate(&s.record); errs != nil {
			s.pos.Errors = errs
			return OutcomeStay, ErrValidationFailed
		}
		s.debug("short-circuit submission")
		return OutcomeSubmit, nil
	}

	if index >= len(ids)-1 {
		return OutcomeStay, nil
	}
	s.pos.Index = index + 1
	s.pos.Interacted[ids[s.pos.Index]] = false
	s.debug("advanced", "question", ids[s.pos.Index], "position", s.pos.Index)
	return OutcomeAdvanced, nil
}

func (s *Session) debug(msg string, args ...any) {
	if !s.cfg.Debug {
		return
	}
	args = append([]any{"session_id", s.id}, args...)
	s.cfg.Logger.Debug(msg, args...)
}
