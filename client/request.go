package client

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// Param is a single query parameter. Duplicate keys are allowed.
type Param struct {
	Key   string
	Value string
}

// Header is a single header line. Duplicate keys are allowed.
type Header struct {
	Key   string
	Value string
}

// Authenticator decorates an outgoing request with auth material
type Authenticator interface {
	Authenticate(r *Request)
}

// PreparedRequest is a fully materialized request, ready for a Transport
type PreparedRequest struct {
	Method  Method
	URL     *url.URL
	Header  http.Header
	Body    string
	HasBody bool
}

// Request accumulates the parts of an HTTP call. It is not safe for concurrent use.
type Request struct {
	method    Method
	baseURL   string
	endpoint  string
	params    []Param
	headers   []Header
	body      *string
	bodyType  string
	transport Transport
}

// NewRequest creates a request for method. A nil transport makes Perform use
// an Ephemeral transport.
func NewRequest(method Method, transport Transport) *Request {
	return &Request{
		method:    method,
		transport: transport,
	}
}

// SetMethod replaces the HTTP method
func (r *Request) SetMethod(method Method) *Request {
	r.method = method
	return r
}

// Method returns the HTTP method
func (r *Request) Method() Method {
	return r.method
}

// SetBaseURL stores baseURL with a single trailing slash removed
func (r *Request) SetBaseURL(baseURL string) *Request {
	r.baseURL = strings.TrimSuffix(baseURL, "/")
	return r
}

// BaseURL returns the stored base URL
func (r *Request) BaseURL() string {
	return r.baseURL
}

// SetEndpoint stores the endpoint path verbatim
func (r *Request) SetEndpoint(endpoint string) *Request {
	r.endpoint = endpoint
	return r
}

// Endpoint returns the stored endpoint path
func (r *Request) Endpoint() string {
	return r.endpoint
}

// SetTransport replaces the transport used by Perform
func (r *Request) SetTransport(transport Transport) *Request {
	r.transport = transport
	return r
}

// AddParameter appends a query parameter. Encoding is deferred to Prepare.
func (r *Request) AddParameter(key, value string) *Request {
	r.params = append(r.params, Param{Key: key, Value: value})
	return r
}

// AddParameters appends every entry of params in key order, so the query
// string is reproducible.
func (r *Request) AddParameters(params map[string]string) *Request {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		r.AddParameter(k, params[k])
	}
	return r
}

// AddParameterList appends params in the given order
func (r *Request) AddParameterList(params ...Param) *Request {
	r.params = append(r.params, params...)
	return r
}

// Params returns a copy of the accumulated query parameters
func (r *Request) Params() []Param {
	out := make([]Param, len(r.params))
	copy(out, r.params)
	return out
}

// CleanParams drops all query parameters
func (r *Request) CleanParams() {
	r.params = nil
}

// AddHeader appends a header line, keeping existing lines with the same key
func (r *Request) AddHeader(key, value string) *Request {
	r.headers = append(r.headers, Header{Key: key, Value: value})
	return r
}

// SetHeader overwrites the first header with key, or appends one if absent
func (r *Request) SetHeader(key, value string) *Request {
	for i, h := range r.headers {
		if strings.EqualFold(h.Key, key) {
			r.headers[i] = Header{Key: key, Value: value}
			return r
		}
	}
	return r.AddHeader(key, value)
}

// RemoveHeader removes every header with key
func (r *Request) RemoveHeader(key string) *Request {
	kept := r.headers[:0]
	for _, h := range r.headers {
		if !strings.EqualFold(h.Key, key) {
			kept = append(kept, h)
		}
	}
	r.headers = kept
	return r
}

// Header returns the value of the first header with key
func (r *Request) Header(key string) string {
	for _, h := range r.headers {
		if strings.EqualFold(h.Key, key) {
			return h.Value
		}
	}
	return ""
}

// Headers returns a copy of the header lines in insertion order
func (r *Request) Headers() []Header {
	out := make([]Header, len(r.headers))
	copy(out, r.headers)
	return out
}

// SetBasicAuth sets the Authorization header for username and password
func (r *Request) SetBasicAuth(username, password string) *Request {
	return r.SetHeader(HeaderAuthorization, "Basic "+EncodeBasicAuth(username, password))
}

// Authenticate lets auth decorate the request. A nil auth is a no-op.
func (r *Request) Authenticate(auth Authenticator) *Request {
	if auth != nil {
		auth.Authenticate(r)
	}
	return r
}

// Reset clears parameters, headers and body. Method, base URL, endpoint and
// transport are kept.
func (r *Request) Reset() {
	r.CleanParams()
	r.headers = nil
	r.body = nil
	r.bodyType = ""
}

// Prepare materializes the URI and binds headers and body to the method
func (r *Request) Prepare() (*PreparedRequest, error) {
	uri, err := r.CreateURI()
	if err != nil {
		return nil, err
	}

	header := make(http.Header, len(r.headers))
	for _, h := range r.headers {
		header.Add(h.Key, h.Value)
	}

	prepared := &PreparedRequest{
		Method: r.method,
		URL:    r.addParametersToURI(uri),
		Header: header,
	}

	if r.body != nil {
		prepared.Body = *r.body
		prepared.HasBody = true
		if header.Get(HeaderContentType) == "" {
			header.Set(HeaderContentType, r.bodyType)
		}
	}

	return prepared, nil
}

// Perform prepares the request and executes it. URI errors are returned
// before any network I/O.
func (r *Request) Perform(ctx context.Context) (*ResponseEntity, error) {
	prepared, err := r.Prepare()
	if err != nil {
		return nil, err
	}

	transport := r.transport
	if transport == nil {
		transport = NewEphemeral()
	}
	return transport.Execute(ctx, prepared)
}

// EncodeBasicAuth returns the base64 encoding of "username:password"
func EncodeBasicAuth(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}
