package survey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mintsurvey/survey-service/internal/catalog"
)

var fixedNow = time.Date(2026, time.May, 4, 10, 0, 0, 0, time.UTC)

func newTestBuilder() *Builder {
	return NewBuilder(catalog.Default(), func() time.Time { return fixedNow })
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession("test-session", newTestBuilder(), Config{})
	require.NoError(t, s.Agree())
	return s
}

func set(t *testing.T, s *Session, f Field, v string) Outcome {
	t.Helper()
	out, err := s.SetField(f, v)
	require.NoError(t, err, "set %s=%q", f, v)
	return out
}

func next(t *testing.T, s *Session) Outcome {
	t.Helper()
	out, err := s.Next()
	require.NoError(t, err)
	return out
}

func togglePurchase(t *testing.T, s *Session, label string) {
	t.Helper()
	_, err := s.TogglePurchaseType(label)
	require.NoError(t, err)
}

// answerDemographics fills questions one to four and stops at the
// purchase-type question.
func answerDemographics(t *testing.T, s *Session) {
	t.Helper()
	set(t, s, FieldName, "Asha")
	require.Equal(t, OutcomeAdvanced, next(t, s))
	require.Equal(t, OutcomeAdvanced, set(t, s, FieldAge, "25-34"))
	require.Equal(t, OutcomeAdvanced, set(t, s, FieldGender, "Female"))
	require.Equal(t, OutcomeAdvanced, set(t, s, FieldCity, "Mumbai"))
	require.Equal(t, QuestionPurchaseTypes, currentID(t, s))
}

// answerOwner walks a car owner through to the contact details question.
func answerOwner(t *testing.T, s *Session) {
	t.Helper()
	answerDemographics(t, s)
	togglePurchase(t, s, "1. Cars/SUVs")
	require.Equal(t, OutcomeAdvanced, next(t, s))

	require.Equal(t, OutcomeAdvanced, set(t, s, FieldBrand, "Toyota"))
	require.Equal(t, OutcomeAdvanced, set(t, s, FieldVehicleModel, "Camry"))
	require.Equal(t, OutcomeStay, set(t, s, FieldPurchaseMonth, "March"))
	require.Equal(t, OutcomeAdvanced, set(t, s, FieldPurchaseYear, "2023"))
	require.Equal(t, OutcomeAdvanced, set(t, s, FieldVehicleCondition, "Brand New"))
	require.Equal(t, OutcomeAdvanced, set(t, s, FieldRecommendLikelihood, "9"))

	_, err := s.ToggleReason("Comfort")
	require.NoError(t, err)
	require.Equal(t, OutcomeAdvanced, next(t, s))

	require.Equal(t, OutcomeAdvanced, set(t, s, FieldSatisfactionLevel, "4"))
	require.Equal(t, OutcomeAdvanced, set(t, s, FieldRepurchaseLikelihood, "8"))
	require.Equal(t, OutcomeStay, set(t, s, FieldAlternativeBrand, "Hyundai"))
	require.Equal(t, OutcomeAdvanced, set(t, s, FieldAlternativeModel, "Creta"))
	require.Equal(t, QuestionContactDetails, currentID(t, s))
}

func currentID(t *testing.T, s *Session) QuestionID {
	t.Helper()
	q, ok := s.View().Current()
	require.True(t, ok)
	return q.ID
}
