package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintsurvey/survey-service/internal/catalog"
	"github.com/mintsurvey/survey-service/internal/recaptcha"
	"github.com/mintsurvey/survey-service/internal/survey"
)

var fixedNow = time.Date(2026, time.May, 4, 10, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(url string, tokens recaptcha.TokenSource) *Client {
	return NewClient(Config{
		URL:    url,
		Logger: discardLogger(),
		Now:    func() time.Time { return fixedNow },
	}, tokens)
}

func ownerRecord() survey.AnswerRecord {
	return survey.AnswerRecord{
		Name:                   "  Ravi ",
		Age:                    "35-44",
		Gender:                 "Male",
		City:                   "Pune",
		PurchaseTypes:          []string{"2. Scooter/Moped", "1. Cars/SUVs"},
		Brand:                  "Toyota",
		VehicleModel:           "Other",
		CustomModel:            " MyModel ",
		PurchaseMonth:          "March",
		PurchaseYear:           "2023",
		VehicleCondition:       "Used",
		RecommendLikelihood:    "8",
		RecommendReasons:       []string{"Other", "Comfort"},
		CustomReason:           "Quiet cabin",
		SatisfactionLevel:      "",
		RepurchaseLikelihood:   "x",
		AlternativeBrand:       "Other",
		CustomAlternativeBrand: "Kia",
		AlternativeModel:       "Other (please specify)",
		CustomAlternativeModel: "Seltos",
		Email:                  " ravi@example.com ",
	}
}

func TestBuildPayloadOwner(t *testing.T) {
	p := BuildPayload(ownerRecord(), fixedNow, "tok")

	assert.Equal(t, "Ravi", p.Name)
	assert.Equal(t, "Scooter/Moped", p.PurchaseType)
	assert.Equal(t, "Toyota", p.Brand)
	assert.Equal(t, "MyModel", p.VehicleModel)
	assert.Equal(t, "Kia", p.AlternativeBrand)
	assert.Equal(t, "Seltos", p.AlternativeVehicle)
	assert.Equal(t, []string{"Comfort", "Quiet cabin"}, p.RecommendReason)
	require.NotNil(t, p.RecommendLikelihood)
	assert.Equal(t, 8, *p.RecommendLikelihood)
	require.NotNil(t, p.SatisfactionLevel)
	assert.Equal(t, 0, *p.SatisfactionLevel)
	require.NotNil(t, p.RepurchaseLikelihood)
	assert.Equal(t, 0, *p.RepurchaseLikelihood)
	assert.Equal(t, "ravi@example.com", p.Email)
	assert.Equal(t, "tok", p.RecaptchaToken)
	require.NotNil(t, p.CreatedAt)
	assert.True(t, fixedNow.Equal(*p.CreatedAt))
}

func TestBuildPayloadNonOwner(t *testing.T) {
	rec := ownerRecord()
	rec.PurchaseTypes = []string{catalog.NoneOfTheAbove}
	rec.ContactNumber = "9876543210"

	p := BuildPayload(rec, fixedNow, "tok")
	assert.Equal(t, "None of the above", p.PurchaseType)
	assert.Equal(t, "Pune", p.City)
	assert.Empty(t, p.Brand)
	assert.Empty(t, p.RecommendReason)
	assert.Nil(t, p.RecommendLikelihood)
	assert.Empty(t, p.Email)
	assert.Empty(t, p.ContactNumber)
}

func TestBuildPayloadBlankOtherKeepsMarker(t *testing.T) {
	rec := ownerRecord()
	rec.CustomModel = "   "
	rec.CustomReason = ""

	p := BuildPayload(rec, fixedNow, "tok")
	assert.Equal(t, "Other", p.VehicleModel)
	assert.Equal(t, []string{"Comfort", "Other"}, p.RecommendReason)
}

func TestSubmitScenarios(t *testing.T) {
	t.Run("custom model is sent in place of Other", func(t *testing.T) {
		var got map[string]interface{}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"success":true}`))
		}))
		defer server.Close()

		rec := survey.AnswerRecord{
			Name:          "Asha",
			Age:           "25-34",
			Gender:        "Female",
			City:          "Mumbai",
			PurchaseTypes: []string{"1. Cars/SUVs"},
			Brand:         "Toyota",
			VehicleModel:  "Other",
			CustomModel:   "MyModel",
		}
		err := newTestClient(server.URL, recaptcha.StaticToken("tok")).Submit(context.Background(), rec)
		require.NoError(t, err)
		assert.Equal(t, "MyModel", got["vehicleModel"])
		assert.Equal(t, "Cars/SUVs", got["purchaseType"])
		assert.Equal(t, "tok", got["recaptchaToken"])
	})

	t.Run("server details are shown verbatim", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"Submission failed","details":"db down"}`))
		}))
		defer server.Close()

		err := newTestClient(server.URL, recaptcha.StaticToken("tok")).Submit(context.Background(), ownerRecord())
		var gwErr *Error
		require.ErrorAs(t, err, &gwErr)
		assert.Equal(t, http.StatusInternalServerError, gwErr.Status)
		assert.Equal(t, "db down", survey.UserMessage(err))
	})

	t.Run("error text when details are absent", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"Invalid payload"}`))
		}))
		defer server.Close()

		err := newTestClient(server.URL, recaptcha.StaticToken("tok")).Submit(context.Background(), ownerRecord())
		assert.Equal(t, "Invalid payload", survey.UserMessage(err))
	})

	t.Run("status message when the body is not JSON", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html>bad gateway</html>"))
		}))
		defer server.Close()

		err := newTestClient(server.URL, recaptcha.StaticToken("tok")).Submit(context.Background(), ownerRecord())
		assert.Equal(t, "Submission failed with status 502", survey.UserMessage(err))
	})

	t.Run("network failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := server.URL
		server.Close()

		err := newTestClient(url, recaptcha.StaticToken("tok")).Submit(context.Background(), ownerRecord())
		assert.Equal(t, networkFailureMessage, survey.UserMessage(err))
	})

	t.Run("token failure makes no request", func(t *testing.T) {
		called := false
		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
		defer server.Close()

		tokens := recaptcha.TokenFunc(func(context.Context, string) (string, error) {
			return "", errors.New("script not loaded")
		})
		err := newTestClient(server.URL, tokens).Submit(context.Background(), ownerRecord())
		assert.ErrorIs(t, err, ErrTokenUnavailable)
		assert.Equal(t, tokenFailureMessage, survey.UserMessage(err))
		assert.False(t, called)
	})
}

func TestSessionSubmitThroughClient(t *testing.T) {
	var bodies []map[string]interface{}
	status := http.StatusInternalServerError
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":"Submission failed","details":"db down"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	builder := survey.NewBuilder(nil, func() time.Time { return fixedNow })
	s := survey.NewSession("s1", builder, survey.Config{Logger: discardLogger()})
	require.NoError(t, s.Agree())

	_, err := s.SetField(survey.FieldName, "Asha")
	require.NoError(t, err)
	_, err = s.Next()
	require.NoError(t, err)
	for _, kv := range [][2]string{{"age", "25-34"}, {"gender", "Female"}, {"city", "Mumbai"}} {
		_, err = s.SetField(survey.Field(kv[0]), kv[1])
		require.NoError(t, err)
	}
	_, err = s.TogglePurchaseType("10. None of the above")
	require.NoError(t, err)

	client := newTestClient(server.URL, recaptcha.StaticToken("tok"))

	err = s.Submit(context.Background(), client)
	require.Error(t, err)
	assert.Equal(t, "db down", s.View().Errors[survey.FieldForm])
	assert.Equal(t, "Asha", s.Record().Name)
	assert.Equal(t, survey.StageSurvey, s.Stage())

	status = http.StatusOK
	require.NoError(t, s.Submit(context.Background(), client))
	assert.Equal(t, survey.StageSubmitted, s.Stage())
	assert.Empty(t, s.Record().Name)

	require.Len(t, bodies, 2)
	assert.Equal(t, "None of the above", bodies[1]["purchaseType"])
	for _, key := range []string{"brand", "vehicleModel", "recommendLikelihood", "recommendReason", "alternativeVehicle"} {
		assert.NotContains(t, bodies[1], key)
	}
}
