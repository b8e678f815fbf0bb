package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintsurvey/survey-service/internal/cache"
	"github.com/mintsurvey/survey-service/internal/config"
	"github.com/mintsurvey/survey-service/internal/repositories/memory"
	"github.com/mintsurvey/survey-service/internal/services"
	"github.com/mintsurvey/survey-service/internal/sessions"
	"github.com/mintsurvey/survey-service/internal/survey"
	"github.com/mintsurvey/survey-service/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	engine    *gin.Engine
	repo      *memory.Repository
	delivered []survey.AnswerRecord
}

type fakeParser struct {
	claims *casdoorsdk.Claims
	err    error
}

func (p fakeParser) ParseJwtToken(string) (*casdoorsdk.Claims, error) {
	return p.claims, p.err
}

func newTestServer(t *testing.T, options RouterOptions) *testServer {
	t.Helper()
	ts := &testServer{repo: memory.NewRepository()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sm := services.NewServiceManager(services.Dependencies{
		Repository:   ts.repo,
		Cache:        cache.NewMemoryCache(),
		CacheTTL:     time.Minute,
		SessionStore: sessions.NewMemoryStore(time.Hour),
		Submitters: func(string, string) survey.Submitter {
			return survey.SubmitterFunc(func(_ context.Context, rec survey.AnswerRecord) error {
				ts.delivered = append(ts.delivered, rec)
				return nil
			})
		},
		Logger: logger,
	})

	ts.engine = gin.New()
	NewHandlerManager(sm, utils.NewSlogLogger(logger), options).SetupRoutes(ts.engine)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func nonOwnerBody() map[string]interface{} {
	return map[string]interface{}{
		"name":         "Asha",
		"age":          "25-34",
		"gender":       "Female",
		"city":         "Mumbai",
		"purchaseType": "None of the above",
	}
}

func TestSubmit(t *testing.T) {
	ts := newTestServer(t, RouterOptions{})

	w := ts.do(t, http.MethodPost, "/api/submit", nonOwnerBody())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[SuccessResponse](t, w)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.ID)

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "SAMEORIGIN", w.Header().Get("X-Frame-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "frame-src https://www.google.com")
}

func TestSubmitRejected(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(map[string]interface{})
		wantError   string
		wantDetails string
	}{
		{
			name:        "missing city",
			mutate:      func(b map[string]interface{}) { b["city"] = "  " },
			wantError:   "Invalid payload",
			wantDetails: "Missing or empty required fields: city",
		},
		{
			name: "other city without text",
			mutate: func(b map[string]interface{}) {
				b["city"] = "Other"
			},
			wantError:   "Invalid payload",
			wantDetails: "Missing or empty required fields: otherCity",
		},
		{
			name:      "bad phone",
			mutate:    func(b map[string]interface{}) { b["contactNumber"] = "12345" },
			wantError: "Invalid payload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, RouterOptions{})
			body := nonOwnerBody()
			tt.mutate(body)

			w := ts.do(t, http.MethodPost, "/api/submit", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decode[ErrorResponse](t, w)
			assert.Equal(t, tt.wantError, resp.Error)
			if tt.wantDetails != "" {
				assert.Equal(t, tt.wantDetails, resp.Details)
			}
		})
	}

	t.Run("malformed json", func(t *testing.T) {
		ts := newTestServer(t, RouterOptions{})
		req := httptest.NewRequest(http.MethodPost, "/api/submit", strings.NewReader("{"))
		w := httptest.NewRecorder()
		ts.engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSubmitStorageFailure(t *testing.T) {
	ts := newTestServer(t, RouterOptions{})
	ts.repo.Responses().FailWith = errors.New("db down")

	w := ts.do(t, http.MethodPost, "/api/submit", nonOwnerBody())
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decode[ErrorResponse](t, w)
	assert.Equal(t, "Submission failed", resp.Error)
	assert.Equal(t, "db down", resp.Details)
}

func TestSubmitRateLimit(t *testing.T) {
	ts := newTestServer(t, RouterOptions{RateLimit: config.RateLimitConfig{PerMinute: 1, Burst: 2}})

	for i := 0; i < 2; i++ {
		w := ts.do(t, http.MethodPost, "/api/submit", nonOwnerBody())
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := ts.do(t, http.MethodPost, "/api/submit", nonOwnerBody())
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Too many requests", decode[ErrorResponse](t, w).Error)
}

func TestListAndExport(t *testing.T) {
	ts := newTestServer(t, RouterOptions{})
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/submit", nonOwnerBody()).Code)
	}

	w := ts.do(t, http.MethodGet, "/api/submit?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "3", w.Header().Get("X-Total-Count"))
	list := decode[[]map[string]interface{}](t, w)
	require.Len(t, list, 2)
	assert.NotEmpty(t, list[0]["id"])
	assert.NotEmpty(t, list[0]["createdAt"])

	id := list[0]["id"].(string)
	w = ts.do(t, http.MethodGet, "/api/submit/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/api/submit/missing-id", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodGet, "/api/submit/export?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
	assert.Equal(t, 4, strings.Count(strings.TrimSpace(w.Body.String()), "\n")+1)

	w = ts.do(t, http.MethodGet, "/api/submit/export?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, "/api/submit?date_from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, "/api/submit/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[map[string]interface{}](t, w)
	assert.Equal(t, float64(3), stats["totalResponses"])
	assert.Equal(t, float64(0), stats["vehicleOwners"])
}

func TestAdminAuth(t *testing.T) {
	admin := &casdoorsdk.Claims{User: casdoorsdk.User{Name: "root", IsAdmin: true}}
	member := &casdoorsdk.Claims{User: casdoorsdk.User{Name: "guest"}}

	tests := []struct {
		name   string
		parser TokenParser
		header string
		want   int
	}{
		{"disabled", nil, "", http.StatusOK},
		{"missing token", fakeParser{claims: admin}, "", http.StatusUnauthorized},
		{"invalid token", fakeParser{err: errors.New("bad signature")}, "Bearer x", http.StatusUnauthorized},
		{"not admin", fakeParser{claims: member}, "Bearer x", http.StatusForbidden},
		{"admin", fakeParser{claims: admin}, "Bearer x", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, RouterOptions{Auth: tt.parser})
			var headers []string
			if tt.header != "" {
				headers = []string{"Authorization", tt.header}
			}
			w := ts.do(t, http.MethodGet, "/api/submit", nil, headers...)
			assert.Equal(t, tt.want, w.Code)

			// submitting never needs a token
			w = ts.do(t, http.MethodPost, "/api/submit", nonOwnerBody())
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestSessionFlow(t *testing.T) {
	ts := newTestServer(t, RouterOptions{})

	w := ts.do(t, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	res := decode[services.SessionResult](t, w)
	id := res.View.SessionID
	require.NotEmpty(t, id)
	assert.Equal(t, survey.StageConsent, res.View.Stage)

	base := "/api/sessions/" + id
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, base+"/consent", gin.H{"agree": true}).Code)

	// consent can only be given once
	w = ts.do(t, http.MethodPost, base+"/consent", gin.H{"agree": true})
	assert.Equal(t, http.StatusConflict, w.Code)

	// an empty name stays on question one with an error
	w = ts.do(t, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res = decode[services.SessionResult](t, w)
	assert.Equal(t, services.OutcomeStay, res.Outcome)
	assert.NotEmpty(t, res.View.Errors[survey.FieldName])

	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPut, base+"/answers", gin.H{"field": "name", "value": "Asha"}).Code)
	w = ts.do(t, http.MethodPost, base+"/next", nil)
	assert.Equal(t, services.OutcomeAdvanced, decode[services.SessionResult](t, w).Outcome)

	for _, kv := range [][2]string{{"age", "25-34"}, {"gender", "Female"}, {"city", "Mumbai"}} {
		w = ts.do(t, http.MethodPut, base+"/answers", gin.H{"field": kv[0], "value": kv[1]})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = ts.do(t, http.MethodPut, base+"/answers", gin.H{"field": "nickname", "value": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, base+"/purchase-types", gin.H{"value": "10. None of the above"})
	require.Equal(t, http.StatusOK, w.Code)
	res = decode[services.SessionResult](t, w)
	assert.Equal(t, services.OutcomeStay, res.Outcome)
	assert.True(t, res.View.ShowSubmit)

	w = ts.do(t, http.MethodPost, base+"/next", nil)
	assert.Equal(t, services.OutcomeSubmit, decode[services.SessionResult](t, w).Outcome)

	w = ts.do(t, http.MethodPost, base+"/submit", gin.H{"recaptchaToken": "tok"})
	require.Equal(t, http.StatusOK, w.Code)
	res = decode[services.SessionResult](t, w)
	assert.Equal(t, survey.StageSubmitted, res.View.Stage)
	require.Len(t, ts.delivered, 1)
	assert.Equal(t, "Mumbai", ts.delivered[0].City)

	w = ts.do(t, http.MethodGet, "/api/sessions/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type addressVerifier struct {
	addrs []string
}

func (v *addressVerifier) Verify(_ context.Context, _, remoteIP string) error {
	v.addrs = append(v.addrs, remoteIP)
	return nil
}

// walkToSubmit answers a new hosted session up to the submit button.
func (ts *testServer) walkToSubmit(t *testing.T) string {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	base := "/api/sessions/" + decode[services.SessionResult](t, w).View.SessionID

	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, base+"/consent", gin.H{"agree": true}).Code)
	for _, kv := range [][2]string{{"name", "Asha"}, {"age", "25-34"}, {"gender", "Female"}, {"city", "Mumbai"}} {
		w = ts.do(t, http.MethodPut, base+"/answers", gin.H{"field": kv[0], "value": kv[1]})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	w = ts.do(t, http.MethodPost, base+"/purchase-types", gin.H{"value": "10. None of the above"})
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, decode[services.SessionResult](t, w).View.ShowSubmit)
	return base
}

func TestSessionSubmitUsesClientAddress(t *testing.T) {
	repo := memory.NewRepository()
	verifier := &addressVerifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sm := services.NewServiceManager(services.Dependencies{
		Repository:   repo,
		Cache:        cache.NewMemoryCache(),
		CacheTTL:     time.Minute,
		Verifier:     verifier,
		SessionStore: sessions.NewMemoryStore(time.Hour),
		Logger:       logger,
	})
	ts := &testServer{engine: gin.New(), repo: repo}
	options := RouterOptions{RateLimit: config.RateLimitConfig{PerMinute: 1, Burst: 1}}
	NewHandlerManager(sm, utils.NewSlogLogger(logger), options).SetupRoutes(ts.engine)

	clients := []string{"203.0.113.7", "198.51.100.4"}
	for _, addr := range clients {
		base := ts.walkToSubmit(t)
		w := ts.do(t, http.MethodPost, base+"/submit", gin.H{"recaptchaToken": "tok"}, "X-Forwarded-For", addr)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, survey.StageSubmitted, decode[services.SessionResult](t, w).View.Stage)
	}
	assert.Equal(t, clients, verifier.addrs)

	count, err := repo.SurveyResponse().Count(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// the public endpoint still has its own bucket for the first client
	w := ts.do(t, http.MethodPost, "/api/submit", nonOwnerBody(), "X-Forwarded-For", clients[0])
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewHTTPHandlerCORS(t *testing.T) {
	ts := newTestServer(t, RouterOptions{})
	handler := NewHTTPHandler(ts.engine, "survey-service-test", []string{"https://survey.example.com"})

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/submit", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	w := preflight("https://survey.example.com")
	assert.Equal(t, "https://survey.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = preflight("https://evil.example.com")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
