package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintsurvey/survey-service/internal/sessions"
	"github.com/mintsurvey/survey-service/internal/survey"
)

var sessionNow = time.Date(2026, time.May, 4, 10, 0, 0, 0, time.UTC)

const testClientIP = "203.0.113.7"

func newTestSessionService(submit survey.SubmitterFunc) (SessionService, *[]string) {
	var tokens []string
	factory := func(token, clientIP string) survey.Submitter {
		tokens = append(tokens, token)
		return submit
	}
	builder := survey.NewBuilder(nil, func() time.Time { return sessionNow })
	return NewSessionService(sessions.NewMemoryStore(time.Hour), builder, factory, discardLogger(), true), &tokens
}

// startNonOwner walks a new session to the "None of the above" short-circuit.
func startNonOwner(t *testing.T, svc SessionService) string {
	t.Helper()
	ctx := context.Background()

	res, err := svc.Create(ctx)
	require.NoError(t, err)
	id := res.View.SessionID
	require.NotEmpty(t, id)
	assert.Equal(t, survey.StageConsent, res.View.Stage)

	_, err = svc.Consent(ctx, id, true)
	require.NoError(t, err)
	_, err = svc.SetField(ctx, id, survey.FieldName, "Asha")
	require.NoError(t, err)
	res, err = svc.Next(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdvanced, res.Outcome)

	for _, kv := range []struct {
		f survey.Field
		v string
	}{{survey.FieldAge, "25-34"}, {survey.FieldGender, "Female"}, {survey.FieldCity, "Mumbai"}} {
		res, err = svc.SetField(ctx, id, kv.f, kv.v)
		require.NoError(t, err)
		assert.Equal(t, OutcomeAdvanced, res.Outcome)
	}

	res, err = svc.TogglePurchaseType(ctx, id, "10. None of the above")
	require.NoError(t, err)
	assert.Equal(t, OutcomeStay, res.Outcome)
	assert.Len(t, res.View.Questions, 5)
	assert.True(t, res.View.ShowSubmit)

	res, err = svc.Next(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSubmit, res.Outcome)
	return id
}

func TestSessionService_SubmitShortCircuit(t *testing.T) {
	ctx := context.Background()
	var delivered []survey.AnswerRecord
	svc, tokens := newTestSessionService(func(_ context.Context, rec survey.AnswerRecord) error {
		delivered = append(delivered, rec)
		return nil
	})

	id := startNonOwner(t, svc)
	res, err := svc.Submit(ctx, id, "tok-1", testClientIP)
	require.NoError(t, err)

	assert.Equal(t, survey.StageSubmitted, res.View.Stage)
	assert.Equal(t, 100, res.View.Progress)
	assert.Equal(t, []string{"tok-1"}, *tokens)
	require.Len(t, delivered, 1)
	assert.Equal(t, "Asha", delivered[0].Name)

	_, err = svc.SetField(ctx, id, survey.FieldName, "again")
	assert.True(t, IsConflict(err))
}

func TestSessionService_SubmitFailureKeepsAnswers(t *testing.T) {
	ctx := context.Background()
	fail := true
	svc, _ := newTestSessionService(func(context.Context, survey.AnswerRecord) error {
		if fail {
			return userFacingError("db down")
		}
		return nil
	})

	id := startNonOwner(t, svc)
	res, err := svc.Submit(ctx, id, "tok", testClientIP)
	require.NoError(t, err)
	assert.Equal(t, survey.StageSurvey, res.View.Stage)
	assert.Equal(t, "db down", res.View.Errors[survey.FieldForm])
	assert.False(t, res.View.InFlight)

	fail = false
	res, err = svc.Submit(ctx, id, "tok", testClientIP)
	require.NoError(t, err)
	assert.Equal(t, survey.StageSubmitted, res.View.Stage)
}

func TestSessionService_RejectsEventsWhileInFlight(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})
	svc, _ := newTestSessionService(func(context.Context, survey.AnswerRecord) error {
		close(started)
		<-release
		return nil
	})

	id := startNonOwner(t, svc)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(ctx, id, "tok", testClientIP)
		done <- err
	}()

	<-started
	_, err := svc.SetField(ctx, id, survey.FieldName, "Changed")
	assert.True(t, IsConflict(err))
	_, err = svc.Submit(ctx, id, "tok", testClientIP)
	assert.ErrorIs(t, err, survey.ErrSubmissionInFlight)

	res, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, res.View.InFlight)

	close(release)
	require.NoError(t, <-done)

	res, err = svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, survey.StageSubmitted, res.View.Stage)
}

func TestSessionService_Errors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestSessionService(func(context.Context, survey.AnswerRecord) error { return nil })

	_, err := svc.Get(ctx, "missing")
	assert.True(t, IsNotFound(err))

	res, err := svc.Create(ctx)
	require.NoError(t, err)
	id := res.View.SessionID

	_, err = svc.SetField(ctx, id, survey.FieldName, "Asha")
	assert.True(t, IsConflict(err), "answers before consent")

	_, err = svc.Consent(ctx, id, true)
	require.NoError(t, err)

	_, err = svc.SetField(ctx, id, survey.Field("nickname"), "x")
	assert.ErrorIs(t, err, ErrBadRequest)
	assert.ErrorIs(t, err, survey.ErrUnknownField)

	_, err = svc.SetField(ctx, id, survey.FieldBrand, "Toyota")
	assert.True(t, IsValidation(err))

	res, err = svc.Next(ctx, id)
	require.NoError(t, err, "validation failures come back in the view")
	assert.Equal(t, OutcomeStay, res.Outcome)
	assert.NotEmpty(t, res.View.Errors[survey.FieldName])
}

func TestSessionService_Decline(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestSessionService(func(context.Context, survey.AnswerRecord) error { return nil })

	res, err := svc.Create(ctx)
	require.NoError(t, err)

	res, err = svc.Consent(ctx, res.View.SessionID, false)
	require.NoError(t, err)
	assert.Equal(t, survey.StageDeclined, res.View.Stage)
	assert.Empty(t, res.View.Questions)
}

func TestSessionService_SubmitterPanicReleasesSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestSessionService(func(context.Context, survey.AnswerRecord) error {
		panic("nil map write")
	})

	id := startNonOwner(t, svc)
	res, err := svc.Submit(ctx, id, "tok", testClientIP)
	require.NoError(t, err)
	assert.Equal(t, survey.StageSurvey, res.View.Stage)
	assert.False(t, res.View.InFlight)
	assert.Equal(t, "Submission failed. Please try again.", res.View.Errors[survey.FieldForm])
}

func TestSessionService_ReleasesStaleSubmission(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestSessionService(func(context.Context, survey.AnswerRecord) error { return nil })
	impl := svc.(*sessionService)
	now := sessionNow
	impl.cfg.Now = func() time.Time { return now }
	impl.submitTimeout = 30 * time.Second

	id := startNonOwner(t, svc)

	// begin_submit is stored but the process never gets to complete_submit.
	_, err := impl.update(ctx, id, "begin_submit", func(sess *survey.Session) (survey.Outcome, error) {
		_, err := sess.BeginSubmit()
		return survey.OutcomeStay, err
	})
	require.NoError(t, err)

	now = now.Add(10 * time.Second)
	res, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, res.View.InFlight)
	_, err = svc.Submit(ctx, id, "tok", testClientIP)
	assert.ErrorIs(t, err, survey.ErrSubmissionInFlight)

	now = now.Add(time.Minute)
	res, err = svc.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, res.View.InFlight)
	assert.NotEmpty(t, res.View.Errors[survey.FieldForm])

	res, err = svc.Submit(ctx, id, "tok", testClientIP)
	require.NoError(t, err)
	assert.Equal(t, survey.StageSubmitted, res.View.Stage)
	assert.False(t, res.View.InFlight)
}

type userFacingError string

func (e userFacingError) Error() string       { return string(e) }
func (e userFacingError) UserMessage() string { return string(e) }
