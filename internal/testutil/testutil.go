// Package testutil provides a fake build server and a mock transport for tests.
package testutil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/GriffinCanCode/jenkins-manager/client"
	"github.com/stretchr/testify/mock"
)

// TestCrumb is the crumb issued by FakeJenkins
const TestCrumb = "test-crumb-0123456789"

// MockTransport is a mock implementation of client.Transport for testing.
type MockTransport struct {
	mock.Mock
}

// Execute mocks the Execute method.
func (m *MockTransport) Execute(ctx context.Context, req *client.PreparedRequest) (*client.ResponseEntity, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.ResponseEntity), args.Error(1)
}

// NewMockTransport creates a mock transport that answers the crumb handshake
// with 404, so sessions start without a crumb.
func NewMockTransport(t *testing.T) *MockTransport {
	t.Helper()
	m := new(MockTransport)

	m.On("Execute", mock.Anything, mock.MatchedBy(func(req *client.PreparedRequest) bool {
		return req.URL.Path == "/crumbIssuer/api/json"
	})).Return(client.NewResponseEntity(http.StatusNotFound, "", nil), nil).Maybe()

	return m
}

// RecordedRequest is one request received by FakeJenkins
type RecordedRequest struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     string
}

// FakeJenkins is a scripted build server
type FakeJenkins struct {
	*httptest.Server

	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []RecordedRequest
}

// NewFakeJenkins starts a server that issues TestCrumb and answers 404 to
// anything not registered with Handle. It is closed with t.Cleanup.
func NewFakeJenkins(t *testing.T) *FakeJenkins {
	t.Helper()

	f := &FakeJenkins{routes: make(map[string]http.HandlerFunc)}
	f.Respond(http.MethodGet, "/crumbIssuer/api/json", http.StatusOK,
		`{"_class":"hudson.security.csrf.DefaultCrumbIssuer","crumb":"`+TestCrumb+`","crumbRequestField":"Jenkins-Crumb"}`)

	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

func (f *FakeJenkins) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, RecordedRequest{
		Method:   r.Method,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
		Header:   r.Header.Clone(),
		Body:     string(body),
	})
	handler, ok := f.routes[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	handler(w, r)
}

// Handle registers handler for method and path
func (f *FakeJenkins) Handle(method, path string, handler http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+path] = handler
}

// Respond registers a fixed answer for method and path
func (f *FakeJenkins) Respond(method, path string, status int, body string) {
	f.Handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		if body != "" && body[0] == '{' {
			w.Header().Set("Content-Type", "application/json;charset=utf-8")
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

// Sequence answers method and path with statuses in order, repeating the last one
func (f *FakeJenkins) Sequence(method, path string, statuses ...int) {
	var (
		mu   sync.Mutex
		next int
	)
	f.Handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		status := statuses[next]
		if next < len(statuses)-1 {
			next++
		}
		mu.Unlock()
		w.WriteHeader(status)
	})
}

// Requests returns every request received so far
func (f *FakeJenkins) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RecordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

// RequestsTo returns the requests received for path
func (f *FakeJenkins) RequestsTo(path string) []RecordedRequest {
	var out []RecordedRequest
	for _, r := range f.Requests() {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}
