package serverrequest

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
)

var (
	// ErrHostNotAllowed is returned when the request host is not on the allowlist.
	ErrHostNotAllowed = errors.New("host not allowed")
	// ErrMissingHost is returned when neither HTTP_HOST nor SERVER_NAME is present.
	ErrMissingHost = errors.New("request has no host")
	// ErrInvalidURI is returned when REQUEST_URI cannot be parsed.
	ErrInvalidURI = errors.New("invalid request uri")
)

// Hosts accepted when the allowlist is empty.
var defaultAllowedHosts = []string{"localhost", "127.0.0.1", "::1"}

// Factory creates server requests.
type Factory struct{}

// NewFactory returns a Factory.
func NewFactory() *Factory {
	return &Factory{}
}

// CreateServerRequestFromServerData validates the host against allowedHosts and
// builds the structured request. An empty allowlist accepts local hosts only.
func (f *Factory) CreateServerRequestFromServerData(allowedHosts []string, data ServerData) (*ServerRequest, error) {
	server := data.Server
	if server == nil {
		server = map[string]string{}
	}

	host := server["HTTP_HOST"]
	if host == "" {
		host = server["SERVER_NAME"]
	}
	host = normalizeHost(host)
	if host == "" {
		return nil, ErrMissingHost
	}
	if !HostAllowed(host, allowedHosts) {
		return nil, fmt.Errorf("%w: %s", ErrHostNotAllowed, host)
	}

	method := strings.ToUpper(server["REQUEST_METHOD"])
	if method == "" {
		method = http.MethodGet
	}
	protocol := server["SERVER_PROTOCOL"]
	if protocol == "" {
		protocol = "HTTP/1.1"
	}
	scheme := "http"
	if https := strings.ToLower(server["HTTPS"]); https != "" && https != "off" {
		scheme = "https"
	}

	uri := server["REQUEST_URI"]
	if uri == "" {
		uri = "/"
	}
	u, err := url.ParseRequestURI(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURI, err)
	}
	u.Scheme = scheme
	u.Host = hostWithPort(server)

	query := data.Query
	if query == nil {
		query = u.Query()
	}

	cookies := make(map[string]string, len(data.Cookies))
	for k, v := range data.Cookies {
		cookies[k] = v
	}

	return &ServerRequest{
		Method:        method,
		Scheme:        scheme,
		Host:          host,
		URL:           u,
		Protocol:      protocol,
		Header:        headersFromServer(server),
		Cookies:       cookies,
		ParsedBody:    data.ParsedBody,
		Query:         query,
		Server:        server,
		UploadedFiles: data.UploadedFiles,
		RemoteAddr:    server["REMOTE_ADDR"],
	}, nil
}

// HostAllowed reports whether host matches an allowlist entry. "*" matches any
// host; an entry starting with "." matches the domain and its subdomains.
func HostAllowed(host string, allowedHosts []string) bool {
	host = normalizeHost(host)
	if len(allowedHosts) == 0 {
		allowedHosts = defaultAllowedHosts
	}
	for _, pattern := range allowedHosts {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		switch {
		case pattern == "*":
			return true
		case strings.HasPrefix(pattern, "."):
			if host == pattern[1:] || strings.HasSuffix(host, pattern) {
				return true
			}
		case host == pattern:
			return true
		}
	}
	return false
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(strings.Trim(host, "[]"), ".")
}

func hostWithPort(server map[string]string) string {
	if h := server["HTTP_HOST"]; h != "" {
		return h
	}
	host := server["SERVER_NAME"]
	if port := server["SERVER_PORT"]; port != "" && port != "80" && port != "443" {
		return net.JoinHostPort(host, port)
	}
	return host
}

func headersFromServer(server map[string]string) http.Header {
	header := http.Header{}
	for k, v := range server {
		switch {
		case strings.HasPrefix(k, "HTTP_"):
			name := strings.ReplaceAll(strings.TrimPrefix(k, "HTTP_"), "_", "-")
			header.Set(name, v)
		case k == "CONTENT_TYPE" || k == "CONTENT_LENGTH":
			header.Set(strings.ReplaceAll(k, "_", "-"), v)
		}
	}
	return header
}
