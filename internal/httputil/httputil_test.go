package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audio-summarizer/internal/logger"
)

func TestSessionIssuesCookie(t *testing.T) {
	var seen string
	h := Session(time.Hour)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Equal(t, seen, cookies[0].Value)
	assert.Equal(t, 3600, cookies[0].MaxAge)
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
}

func TestSessionKeepsExistingCookie(t *testing.T) {
	id := uuid.NewString()
	var seen string
	h := Session(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: id})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, id, seen)
	assert.Empty(t, rec.Result().Cookies())
}

func TestSessionReplacesMalformedCookie(t *testing.T) {
	var seen string
	h := Session(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "not-a-uuid"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.NotEqual(t, "not-a-uuid", seen)
	require.Len(t, rec.Result().Cookies(), 1)
}

func TestFailWritesJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	Fail(logger.Discard(), rec, "file is required", nil, http.StatusBadRequest)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "file is required", body["error"])

	rec = httptest.NewRecorder()
	Fail(logger.Discard(), rec, "boom", nil, 0)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(logger.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestValidationError(t *testing.T) {
	type payload struct {
		Method string `json:"method" validate:"required,oneof=local remote"`
	}

	err := Validator.Struct(&payload{Method: "whisper"})
	require.Error(t, err)

	rec := httptest.NewRecorder()
	ValidationError(logger.Discard(), rec, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "must be one of: local remote", body.Fields["method"])
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler(logger.Discard()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
