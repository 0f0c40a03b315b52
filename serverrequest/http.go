package serverrequest

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/cgi"
	"strings"
)

const (
	maxMemory   = 32 << 20
	maxBodySize = 10 << 20
)

// FromHTTPRequest extracts raw server data from a net/http request.
// Form bodies are parsed into url.Values; other bodies are kept as bytes.
func FromHTTPRequest(r *http.Request) (ServerData, error) {
	data := ServerData{
		Cookies: make(map[string]string),
		Query:   r.URL.Query(),
		Server:  serverParams(r),
	}
	for _, c := range r.Cookies() {
		data.Cookies[c.Name] = c.Value
	}

	if r.Body == nil || r.Body == http.NoBody {
		return data, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return data, fmt.Errorf("failed to parse multipart body: %w", err)
		}
		data.ParsedBody = r.PostForm
		for field, headers := range r.MultipartForm.File {
			for _, fh := range headers {
				data.UploadedFiles = append(data.UploadedFiles, UploadedFile{
					Field:       field,
					Filename:    fh.Filename,
					ContentType: fh.Header.Get("Content-Type"),
					Size:        fh.Size,
				})
			}
		}
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return data, fmt.Errorf("failed to parse form body: %w", err)
		}
		data.ParsedBody = r.PostForm
	default:
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			return data, fmt.Errorf("failed to read body: %w", err)
		}
		if len(body) > 0 {
			data.ParsedBody = body
		}
	}
	return data, nil
}

// FromCGIEnvironment reads the current process' CGI environment and stdin.
func FromCGIEnvironment() (ServerData, error) {
	r, err := cgi.Request()
	if err != nil {
		return ServerData{}, fmt.Errorf("failed to read CGI request: %w", err)
	}
	return FromHTTPRequest(r)
}

func serverParams(r *http.Request) map[string]string {
	params := map[string]string{
		"REQUEST_METHOD":  r.Method,
		"REQUEST_URI":     r.URL.RequestURI(),
		"SERVER_PROTOCOL": r.Proto,
		"HTTP_HOST":       r.Host,
		"REMOTE_ADDR":     r.RemoteAddr,
		"QUERY_STRING":    r.URL.RawQuery,
	}
	if r.TLS != nil || r.URL.Scheme == "https" {
		params["HTTPS"] = "on"
	}
	for name, values := range r.Header {
		if len(values) == 0 {
			continue
		}
		key := "HTTP_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
		switch key {
		case "HTTP_CONTENT_TYPE":
			params["CONTENT_TYPE"] = values[0]
		case "HTTP_CONTENT_LENGTH":
			params["CONTENT_LENGTH"] = values[0]
		default:
			params[key] = strings.Join(values, ", ")
		}
	}
	return params
}
