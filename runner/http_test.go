package runner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"appshell/serverrequest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func buildRequest(t *testing.T, server map[string]string, data serverrequest.ServerData) *serverrequest.ServerRequest {
	t.Helper()
	data.Server = server
	req, err := serverrequest.NewFactory().CreateServerRequestFromServerData([]string{"*"}, data)
	require.NoError(t, err)
	return req
}

func TestHTTPRunner_Health(t *testing.T) {
	rec := httptest.NewRecorder()
	req := buildRequest(t, map[string]string{
		"HTTP_HOST":      "a.test",
		"REQUEST_METHOD": "GET",
		"REQUEST_URI":    "/health",
	}, serverrequest.ServerData{})

	r := NewHTTPRunnerFactory(NewRouter(zaptest.NewLogger(t).Sugar()), rec).CreateHTTPRunner(req)
	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHTTPRunner_Welcome(t *testing.T) {
	rec := httptest.NewRecorder()
	req := buildRequest(t, map[string]string{"HTTP_HOST": "a.test:8080"}, serverrequest.ServerData{})

	require.NoError(t, NewHTTPRunner(req, NewRouter(nil), rec).Run(context.Background()))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "appshell", body["service"])
	assert.Equal(t, "a.test:8080", body["host"])
}

func TestHTTPRunner_EchoFormBody(t *testing.T) {
	rec := httptest.NewRecorder()
	req := buildRequest(t, map[string]string{
		"HTTP_HOST":      "a.test",
		"REQUEST_METHOD": "POST",
		"REQUEST_URI":    "/echo?page=2",
		"CONTENT_TYPE":   "application/x-www-form-urlencoded",
		"HTTP_COOKIE":    "session=abc",
	}, serverrequest.ServerData{
		Cookies:    map[string]string{"session": "abc"},
		ParsedBody: url.Values{"name": {"ada"}},
	})

	require.NoError(t, NewHTTPRunner(req, NewRouter(nil), rec).Run(context.Background()))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Method  string              `json:"method"`
		Query   map[string][]string `json:"query"`
		Cookies []string            `json:"cookies"`
		Body    string              `json:"body"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "POST", body.Method)
	assert.Equal(t, []string{"2"}, body.Query["page"])
	assert.Equal(t, []string{"session"}, body.Cookies)
	assert.Equal(t, "name=ada", body.Body)
}

func TestHTTPRunner_NotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	req := buildRequest(t, map[string]string{"HTTP_HOST": "a.test", "REQUEST_URI": "/missing"}, serverrequest.ServerData{})

	require.NoError(t, NewHTTPRunner(req, NewRouter(nil), rec).Run(context.Background()))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "/missing")
}

func TestHTTPRunner_Metrics(t *testing.T) {
	rec := httptest.NewRecorder()
	req := buildRequest(t, map[string]string{"HTTP_HOST": "a.test", "REQUEST_URI": "/metrics"}, serverrequest.ServerData{})

	require.NoError(t, NewHTTPRunner(req, NewRouter(nil), rec).Run(context.Background()))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "go_goroutines"))
}

func TestHTTPRunner_HandlerPanicPropagates(t *testing.T) {
	req := buildRequest(t, map[string]string{"HTTP_HOST": "a.test"}, serverrequest.ServerData{})
	handler := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("handler bug") })

	r := NewHTTPRunner(req, handler, httptest.NewRecorder())
	assert.PanicsWithValue(t, "handler bug", func() { _ = r.Run(context.Background()) })
}

func TestHTTPRunner_NoRequest(t *testing.T) {
	assert.Error(t, NewHTTPRunner(nil, NewRouter(nil), httptest.NewRecorder()).Run(context.Background()))
}
