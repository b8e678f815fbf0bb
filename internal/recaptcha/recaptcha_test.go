package recaptcha

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSiteVerifier(t *testing.T) {
	tests := []struct {
		name     string
		response map[string]interface{}
		status   int
		wantErr  error
	}{
		{
			name:     "accepted",
			response: map[string]interface{}{"success": true, "score": 0.9, "action": "submit_survey"},
			status:   http.StatusOK,
		},
		{
			name:     "rejected",
			response: map[string]interface{}{"success": false, "error-codes": []string{"timeout-or-duplicate"}},
			status:   http.StatusOK,
			wantErr:  ErrRejected,
		},
		{
			name:     "low score",
			response: map[string]interface{}{"success": true, "score": 0.1, "action": "submit_survey"},
			status:   http.StatusOK,
			wantErr:  ErrRejected,
		},
		{
			name:     "wrong action",
			response: map[string]interface{}{"success": true, "score": 0.9, "action": "login"},
			status:   http.StatusOK,
			wantErr:  ErrRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.NoError(t, r.ParseForm())
				assert.Equal(t, "secret", r.PostForm.Get("secret"))
				assert.Equal(t, "tok", r.PostForm.Get("response"))
				assert.Equal(t, "10.0.0.1", r.PostForm.Get("remoteip"))
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(tt.response)
			}))
			defer server.Close()

			v := NewSiteVerifier(Config{
				Secret:    "secret",
				VerifyURL: server.URL,
				Action:    "submit_survey",
				MinScore:  0.5,
				Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
			})

			err := v.Verify(context.Background(), "tok", "10.0.0.1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSiteVerifierMissingToken(t *testing.T) {
	v := NewSiteVerifier(Config{VerifyURL: "http://127.0.0.1:0"})
	assert.ErrorIs(t, v.Verify(context.Background(), "  ", ""), ErrMissingToken)
}

func TestStaticToken(t *testing.T) {
	tok, err := StaticToken("abc").Token(context.Background(), "submit")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	_, err = StaticToken("").Token(context.Background(), "submit")
	assert.ErrorIs(t, err, ErrMissingToken)
}
