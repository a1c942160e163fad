package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/GriffinCanCode/jenkins-manager/client"
	"github.com/GriffinCanCode/jenkins-manager/internal/logging"
	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

const (
	// CrumbEndpoint issues CSRF crumbs
	CrumbEndpoint = "/crumbIssuer/api/json"

	// CrumbHeader carries the crumb on mutating requests
	CrumbHeader = "Jenkins-Crumb"
)

type crumbResponse struct {
	Crumb             string `json:"crumb"`
	CrumbRequestField string `json:"crumbRequestField"`
}

type options struct {
	transport client.Transport
	logger    *zap.Logger
}

// Option configures a Session
type Option func(*options)

// WithTransport sets the transport used for the crumb handshake
func WithTransport(transport client.Transport) Option {
	return func(o *options) {
		o.transport = transport
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Session holds Basic-Auth credentials and the crumb of one server
type Session struct {
	baseURL   string
	encoding  string
	transport client.Transport
	logger    *zap.Logger

	mu    sync.RWMutex
	crumb string
}

// NewSession fetches a crumb from baseURL. A non-200 answer leaves the crumb
// empty, since servers may run with CSRF protection disabled.
func NewSession(ctx context.Context, baseURL, username, secret string, opts ...Option) (*Session, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.transport == nil {
		o.transport = client.NewEphemeral()
	}

	s := &Session{
		baseURL:   baseURL,
		encoding:  client.EncodeBasicAuth(username, secret),
		transport: o.transport,
		logger:    logging.OrNop(o.logger),
	}

	if err := s.RefreshCrumb(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// RefreshCrumb fetches a new crumb, replacing the stored one
func (s *Session) RefreshCrumb(ctx context.Context) error {
	resp, err := client.NewRequest(client.MethodGet, s.transport).
		SetBaseURL(s.baseURL).
		SetEndpoint(CrumbEndpoint).
		SetHeader(client.HeaderAuthorization, "Basic "+s.encoding).
		AddHeader("Content-type", string(client.MediaTypeApplicationJSON)).
		Perform(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch crumb: %w", err)
	}

	crumb := ""
	if resp.StatusCode() == http.StatusOK {
		var parsed crumbResponse
		if err := sonic.UnmarshalString(resp.Body(), &parsed); err != nil {
			return fmt.Errorf("failed to parse crumb response: %w", err)
		}
		crumb = parsed.Crumb
	} else {
		s.logger.Info("crumb issuer unavailable, continuing without crumb",
			zap.Int("status", resp.StatusCode()))
	}

	s.mu.Lock()
	s.crumb = crumb
	s.mu.Unlock()
	return nil
}

// Authenticate adds Basic-Auth to r, and the crumb header unless r is a GET
// or no crumb was issued.
func (s *Session) Authenticate(r *client.Request) {
	r.SetHeader(client.HeaderAuthorization, "Basic "+s.encoding)

	crumb := s.Crumb()
	if crumb != "" && r.Method() != client.MethodGet {
		r.SetHeader(CrumbHeader, crumb)
	}
}

// BaseURL returns the server URL the session was created for
func (s *Session) BaseURL() string {
	return s.baseURL
}

// Encoding returns the base64 Basic-Auth credentials
func (s *Session) Encoding() string {
	return s.encoding
}

// Crumb returns the current crumb, empty if none was issued
func (s *Session) Crumb() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.crumb
}

// Basic adds Basic-Auth only
type Basic struct {
	encoding string
}

// NewBasic creates a credentials-only authenticator
func NewBasic(username, secret string) *Basic {
	return &Basic{encoding: client.EncodeBasicAuth(username, secret)}
}

// Authenticate sets the Authorization header
func (b *Basic) Authenticate(r *client.Request) {
	r.SetHeader(client.HeaderAuthorization, "Basic "+b.encoding)
}

var (
	_ client.Authenticator = (*Session)(nil)
	_ client.Authenticator = (*Basic)(nil)
)
