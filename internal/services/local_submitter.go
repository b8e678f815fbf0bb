package services

import (
	"context"
	"errors"
	"time"

	"github.com/mintsurvey/survey-service/internal/gateway"
	"github.com/mintsurvey/survey-service/internal/survey"
)

// submitFailure is a failed in-process submission. Message mirrors the
// details POST /api/submit would have returned.
type submitFailure struct {
	message string
	err     error
}

func (e *submitFailure) Error() string       { return e.err.Error() }
func (e *submitFailure) Unwrap() error       { return e.err }
func (e *submitFailure) UserMessage() string { return e.message }

// LocalSubmitters delivers hosted-session records straight to the submission
// service, verified against the respondent's own address.
func LocalSubmitters(submission SubmissionService, now func() time.Time) SubmitterFactory {
	if now == nil {
		now = time.Now
	}
	return func(token, clientIP string) survey.Submitter {
		return survey.SubmitterFunc(func(ctx context.Context, rec survey.AnswerRecord) error {
			req := gateway.BuildPayload(rec, now(), token)
			if _, err := submission.Submit(ctx, &req, clientIP); err != nil {
				return &submitFailure{message: submissionMessage(err), err: err}
			}
			return nil
		})
	}
}

// submissionMessage matches the details handleServiceError sends for err.
func submissionMessage(err error) string {
	var payloadErr *PayloadError
	var persistErr *PersistenceError
	switch {
	case errors.As(err, &payloadErr):
		return payloadErr.Details
	case IsVerification(err):
		return VerificationFailedDetails
	case errors.As(err, &persistErr):
		return persistErr.Err.Error()
	}
	return ""
}
