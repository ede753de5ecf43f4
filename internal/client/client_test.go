package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name string `json:"name"`
}

func quietLogger() *log.Logger {
	l := log.New()
	l.SetLevel(log.PanicLevel)
	return l
}

func setup(t *testing.T, h http.HandlerFunc, opts Options) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts.BaseURL = srv.URL
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	return New(opts)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClientUnwrapsEnvelope(t *testing.T) {
	c := setup(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/things", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]string{"name": "edamame"}})
	}, Options{})

	var out payload
	err := c.Get(context.Background(), "/things", ListQuery(listParams(2)), &out)
	require.NoError(t, err)
	assert.Equal(t, "edamame", out.Name)
}

func TestClientSendsBearerTokenAndRequestID(t *testing.T) {
	c := setup(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in payload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "tea", in.Name)
		writeJSON(w, http.StatusCreated, map[string]any{"success": true})
	}, Options{Tokens: TokenFunc(func() string { return "tok-1" }), RequestIDs: true})

	require.NoError(t, c.Post(context.Background(), "/things", payload{Name: "tea"}, nil))
}

func TestClientOmitsEmptyToken(t *testing.T) {
	c := setup(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("X-Request-ID"))
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}, Options{Tokens: TokenFunc(func() string { return "" })})

	require.NoError(t, c.Delete(context.Background(), "/things/1", nil))
}

func TestClientHTTPError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        any
		wantCode    string
		wantMessage string
	}{
		{
			name:        "server message and code",
			status:      http.StatusBadRequest,
			body:        map[string]any{"success": false, "message": "quantity out of range", "code": "INVALID_QUANTITY", "details": map[string]any{"max": 99}},
			wantCode:    "INVALID_QUANTITY",
			wantMessage: "quantity out of range",
		},
		{
			name:        "status only",
			status:      http.StatusNotFound,
			wantCode:    "HTTP_404",
			wantMessage: "Request failed with status 404",
		},
		{
			name:        "server error with message",
			status:      http.StatusInternalServerError,
			body:        map[string]any{"success": false, "message": "boom"},
			wantCode:    "HTTP_500",
			wantMessage: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := setup(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.body == nil {
					w.WriteHeader(tt.status)
					return
				}
				writeJSON(w, tt.status, tt.body)
			}, Options{})

			err := c.Get(context.Background(), "/x", nil, nil)
			apiErr, ok := AsAPIError(err)
			require.True(t, ok, "want *APIError, got %T", err)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.NotNil(t, apiErr.Details)
		})
	}
}

func TestClientUnauthorizedHook(t *testing.T) {
	var calls int32
	c := setup(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "expired"})
	}, Options{OnUnauthorized: func() { atomic.AddInt32(&calls, 1) }})

	err := c.Get(context.Background(), "/admin/stores", nil, nil)
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClientNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := New(Options{BaseURL: base, Logger: quietLogger()})
	err := c.Get(context.Background(), "/x", nil, nil)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, CodeNetwork, apiErr.Code)
	assert.Zero(t, apiErr.Status)
	assert.True(t, IsRetryable(err))
}

func TestClientTimeoutIsNetworkError(t *testing.T) {
	c := setup(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}, Options{Timeout: 20 * time.Millisecond})

	err := c.Get(context.Background(), "/slow", nil, nil)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, CodeNetwork, apiErr.Code)
}

func TestClientCallerCancelIsNotRetryable(t *testing.T) {
	c := setup(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Get(ctx, "/x", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, IsRetryable(err))
}

func TestClientUnsuccessfulEnvelope(t *testing.T) {
	c := setup(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "nope"})
	}, Options{})

	err := c.Get(context.Background(), "/x", nil, nil)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, CodeUnknown, apiErr.Code)
	assert.Equal(t, "nope", apiErr.Message)
}

func TestClientMalformedBody(t *testing.T) {
	c := setup(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>"))
	}, Options{})

	err := c.Get(context.Background(), "/x", nil, &payload{})
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, CodeUnknown, apiErr.Code)
}

func TestSetTokenSource(t *testing.T) {
	c := setup(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer late", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}, Options{})

	c.SetTokenSource(TokenFunc(func() string { return "late" }))
	require.NoError(t, c.Get(context.Background(), "/x", nil, nil))
}
