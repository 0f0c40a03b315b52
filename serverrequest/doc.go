// Package serverrequest builds structured server requests from raw transport
// data (cookies, parsed body, query parameters, server parameters and uploaded
// file metadata), rejecting hosts that are not on the configured allowlist.
//
// Raw data can come from a net/http request (FromHTTPRequest) or from a CGI
// environment (FromCGIEnvironment). Server parameters use CGI names such as
// REQUEST_METHOD, REQUEST_URI, HTTP_HOST and HTTP_<HEADER>.
package serverrequest
