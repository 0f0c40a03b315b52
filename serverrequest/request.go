package serverrequest

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// UploadedFile describes one file received with a request.
type UploadedFile struct {
	Field       string `json:"field"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// ServerData is the raw transport input of one request.
type ServerData struct {
	Cookies       map[string]string
	ParsedBody    any
	Query         url.Values
	Server        map[string]string
	UploadedFiles []UploadedFile
}

// ServerRequest is the structured request handed to application runners.
type ServerRequest struct {
	Method        string
	Scheme        string
	// Host is the validated host name, lowercased and without port. URL.Host keeps the port.
	Host          string
	URL           *url.URL
	Protocol      string
	Header        http.Header
	Cookies       map[string]string
	ParsedBody    any
	Query         url.Values
	Server        map[string]string
	UploadedFiles []UploadedFile
	RemoteAddr    string
}

// Cookie returns the named cookie value.
func (r *ServerRequest) Cookie(name string) (string, bool) {
	v, ok := r.Cookies[name]
	return v, ok
}

// ServerParam returns a server parameter such as "REMOTE_ADDR".
func (r *ServerRequest) ServerParam(name string) string {
	return r.Server[name]
}

// HTTPRequest converts the request into a *http.Request suitable for an http.Handler.
func (r *ServerRequest) HTTPRequest(ctx context.Context) (*http.Request, error) {
	body, contentType := r.encodeBody()

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL.String(), body)
	if err != nil {
		return nil, err
	}
	req.RemoteAddr = r.RemoteAddr
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}
	if len(r.Cookies) > 0 && req.Header.Get("Cookie") == "" {
		for name, value := range r.Cookies {
			req.AddCookie(&http.Cookie{Name: name, Value: value})
		}
	}
	return req, nil
}

func (r *ServerRequest) encodeBody() (io.Reader, string) {
	switch body := r.ParsedBody.(type) {
	case nil:
		return nil, ""
	case url.Values:
		return strings.NewReader(body.Encode()), "application/x-www-form-urlencoded"
	case []byte:
		return bytes.NewReader(body), ""
	case string:
		return strings.NewReader(body), ""
	default:
		return nil, ""
	}
}
