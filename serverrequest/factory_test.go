package serverrequest

import (
	"context"
	"io"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateServerRequestFromServerData(t *testing.T) {
	data := ServerData{
		Cookies:    map[string]string{"session": "abc"},
		ParsedBody: url.Values{"name": {"ada"}},
		Server: map[string]string{
			"HTTP_HOST":       "A.Test:8443",
			"REQUEST_METHOD":  "post",
			"REQUEST_URI":     "/users?page=2",
			"HTTPS":           "on",
			"HTTP_USER_AGENT": "curl/8",
			"REMOTE_ADDR":     "10.0.0.1:5000",
		},
	}

	req, err := NewFactory().CreateServerRequestFromServerData([]string{"a.test"}, data)
	require.NoError(t, err)

	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "https", req.Scheme)
	assert.Equal(t, "a.test", req.Host)
	assert.Equal(t, "/users", req.URL.Path)
	assert.Equal(t, "2", req.Query.Get("page"), "query falls back to REQUEST_URI")
	assert.Equal(t, "HTTP/1.1", req.Protocol)
	assert.Equal(t, "curl/8", req.Header.Get("User-Agent"))
	assert.Equal(t, "10.0.0.1:5000", req.ServerParam("REMOTE_ADDR"))

	session, ok := req.Cookie("session")
	assert.True(t, ok)
	assert.Equal(t, "abc", session)
}

func TestCreateServerRequest_HostRejected(t *testing.T) {
	data := ServerData{Server: map[string]string{"HTTP_HOST": "evil.test"}}

	req, err := NewFactory().CreateServerRequestFromServerData([]string{"a.test", "b.test"}, data)
	assert.ErrorIs(t, err, ErrHostNotAllowed)
	assert.Nil(t, req)
}

func TestCreateServerRequest_MissingHost(t *testing.T) {
	_, err := NewFactory().CreateServerRequestFromServerData(nil, ServerData{})
	assert.ErrorIs(t, err, ErrMissingHost)
}

func TestCreateServerRequest_ServerNameFallback(t *testing.T) {
	data := ServerData{Server: map[string]string{"SERVER_NAME": "localhost", "SERVER_PORT": "8080"}}

	req, err := NewFactory().CreateServerRequestFromServerData(nil, data)
	require.NoError(t, err)
	assert.Equal(t, "localhost", req.Host)
	assert.Equal(t, "http://localhost:8080/", req.URL.String())
	assert.Equal(t, "GET", req.Method)
}

func TestHostAllowed(t *testing.T) {
	tests := []struct {
		host    string
		allowed []string
		want    bool
	}{
		{"a.test", []string{"a.test"}, true},
		{"A.TEST.", []string{"a.test"}, true},
		{"b.test", []string{"a.test"}, false},
		{"api.example.com", []string{".example.com"}, true},
		{"example.com", []string{".example.com"}, true},
		{"badexample.com", []string{".example.com"}, false},
		{"anything.test", []string{"*"}, true},
		{"localhost:8080", nil, true},
		{"[::1]:8080", nil, true},
		{"example.com", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.want, HostAllowed(tt.host, tt.allowed))
		})
	}
}

func TestServerRequest_HTTPRequest(t *testing.T) {
	data := ServerData{
		Cookies:    map[string]string{"session": "abc"},
		ParsedBody: url.Values{"name": {"ada"}},
		Server: map[string]string{
			"HTTP_HOST":      "a.test",
			"REQUEST_METHOD": "POST",
			"REQUEST_URI":    "/submit",
		},
	}
	sr, err := NewFactory().CreateServerRequestFromServerData([]string{"a.test"}, data)
	require.NoError(t, err)

	req, err := sr.HTTPRequest(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "a.test", req.Host)
	assert.Equal(t, "application/x-www-form-urlencoded", req.Header.Get("Content-Type"))
	cookie, err := req.Cookie("session")
	require.NoError(t, err)
	assert.Equal(t, "abc", cookie.Value)

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, "name=ada", string(body))
}
