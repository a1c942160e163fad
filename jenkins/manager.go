package jenkins

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/GriffinCanCode/jenkins-manager/auth"
	"github.com/GriffinCanCode/jenkins-manager/client"
	"github.com/GriffinCanCode/jenkins-manager/config"
	"github.com/GriffinCanCode/jenkins-manager/internal/id"
	"github.com/GriffinCanCode/jenkins-manager/internal/logging"
	"go.uber.org/zap"
)

const (
	DefaultPollInterval = 3 * time.Second
	DefaultPollTimeout  = 60 * time.Second
)

type options struct {
	transport     client.Transport
	logger        *zap.Logger
	authenticator client.Authenticator
	pollInterval  time.Duration
	pollTimeout   time.Duration
}

// Option configures a Manager
type Option func(*options)

// WithTransport sets the transport for every call. The caller owns its
// lifecycle. The default builds a fresh client per call.
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

// WithAuthenticator replaces the Basic-Auth and crumb session. No crumb is
// fetched when it is set.
func WithAuthenticator(authenticator client.Authenticator) Option {
	return func(o *options) {
		o.authenticator = authenticator
	}
}

// WithRestartPolling sets how often and how long RestartJenkins probes the
// server after requesting a restart
func WithRestartPolling(interval, timeout time.Duration) Option {
	return func(o *options) {
		if interval > 0 {
			o.pollInterval = interval
		}
		if timeout > 0 {
			o.pollTimeout = timeout
		}
	}
}

// Manager runs job, plugin and restart operations against one server.
// It keeps no job state; every query goes to the server. It is safe for
// concurrent use when its transport is.
type Manager struct {
	baseURL       string
	encoding      string
	session       *auth.Session
	authenticator client.Authenticator
	transport     client.Transport
	logger        *zap.Logger
	pollInterval  time.Duration
	pollTimeout   time.Duration
}

// New creates a Manager for baseURL and fetches the CSRF crumb
func New(ctx context.Context, baseURL, username, secret string, opts ...Option) (*Manager, error) {
	o := options{
		pollInterval: DefaultPollInterval,
		pollTimeout:  DefaultPollTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.transport == nil {
		o.transport = client.NewEphemeral(client.WithLogger(o.logger))
	}

	m := &Manager{
		baseURL:       baseURL,
		encoding:      client.EncodeBasicAuth(username, secret),
		authenticator: o.authenticator,
		transport:     o.transport,
		logger:        logging.OrNop(o.logger).With(zap.String("server", redactURL(baseURL))),
		pollInterval:  o.pollInterval,
		pollTimeout:   o.pollTimeout,
	}

	if m.authenticator == nil {
		session, err := auth.NewSession(ctx, baseURL, username, secret,
			auth.WithTransport(m.transport),
			auth.WithLogger(m.logger),
		)
		if err != nil {
			return nil, err
		}
		m.session = session
		m.authenticator = session
	}

	m.logger.Debug("manager ready", zap.Bool("crumb", m.Crumb() != ""))
	return m, nil
}

// NewFromHost creates a Manager for protocol://host:port
func NewFromHost(ctx context.Context, protocol, host string, port int, username, secret string, opts ...Option) (*Manager, error) {
	if port < 0 || port > 65535 {
		return nil, validationError("port %d out of range", port)
	}
	return New(ctx, fmt.Sprintf("%s://%s:%d", protocol, host, port), username, secret, opts...)
}

// NewFromConfig creates a Manager and its transport from cfg. The returned
// close function releases a shared transport and is safe to call when the
// transport is ephemeral.
func NewFromConfig(ctx context.Context, cfg *config.Config, opts ...Option) (*Manager, func() error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	clientOpts := []client.Option{
		client.WithLogger(logger),
		client.WithTimeout(cfg.Client.Timeout.Std()),
		client.WithRateLimit(cfg.Client.RateLimit, 1),
		client.WithInsecureSkipVerify(cfg.Client.InsecureSkipVerify),
	}

	var (
		transport client.Transport
		closeFn   = func() error { return nil }
	)
	if cfg.Client.Shared {
		shared := client.NewClient(clientOpts...)
		transport, closeFn = shared, shared.Close
	} else {
		transport = client.NewEphemeral(clientOpts...)
	}

	all := append([]Option{
		WithTransport(transport),
		WithLogger(logger),
		WithRestartPolling(cfg.Restart.PollInterval.Std(), cfg.Restart.PollTimeout.Std()),
	}, opts...)

	m, err := New(ctx, cfg.Server.URL, cfg.Server.Username, cfg.Server.Password, all...)
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	return m, closeFn, nil
}

// BaseURL returns the server URL
func (m *Manager) BaseURL() string {
	return m.baseURL
}

// Crumb returns the CSRF crumb, empty when none was issued
func (m *Manager) Crumb() string {
	if m.session == nil {
		return ""
	}
	return m.session.Crumb()
}

// Encoding returns the base64 Basic-Auth credentials
func (m *Manager) Encoding() string {
	return m.encoding
}

// RefreshCrumb fetches a new crumb. It is a no-op with a custom authenticator.
func (m *Manager) RefreshCrumb(ctx context.Context) error {
	if m.session == nil {
		return nil
	}
	return m.session.RefreshCrumb(ctx)
}

func (m *Manager) newRequest(method client.Method, endpoint string) *client.Request {
	return client.NewRequest(method, m.transport).
		SetBaseURL(m.baseURL).
		SetEndpoint(endpoint).
		Authenticate(m.authenticator)
}

// call performs r and returns a rejection unless the status is want
func (m *Manager) call(ctx context.Context, r *client.Request, want int, rej rejection) (*client.ResponseEntity, error) {
	opID := id.NewOperationID()
	logger := m.logger.With(zap.String("op_id", opID.String()), zap.String("op", rej.op))
	if rej.job != "" {
		logger = logger.With(zap.String("job", rej.job))
	}

	resp, err := r.Perform(ctx)
	if err != nil {
		logger.Warn("request failed", zap.Error(err))
		return nil, fmt.Errorf("%s: %w", rej.op, err)
	}

	if resp.StatusCode() != want {
		logger.Warn("server rejected request",
			zap.String("endpoint", r.Endpoint()),
			zap.Int("status", resp.StatusCode()),
			zap.Int("want", want),
		)
		return resp, rej.from(r, resp)
	}

	logger.Debug("request accepted", zap.Int("status", resp.StatusCode()))
	return resp, nil
}

type rejection struct {
	kind  error
	op    string
	job   string
	crumb string
}

func (rej rejection) from(r *client.Request, resp *client.ResponseEntity) *ServerRejectedError {
	return &ServerRejectedError{
		Kind:       rej.kind,
		Op:         rej.op,
		Method:     r.Method(),
		Endpoint:   r.Endpoint(),
		Job:        rej.job,
		Crumb:      rej.crumb,
		StatusCode: resp.StatusCode(),
		Status:     resp.StatusCodeValue(),
		Body:       resp.Body(),
		summary:    resp.Summary(),
	}
}

func jobPath(name string, rest ...string) string {
	path := "/job/" + url.PathEscape(name)
	for _, r := range rest {
		path += "/" + r
	}
	return path
}

func buildRef(number int) string {
	if number <= 0 {
		return "lastBuild"
	}
	return strconv.Itoa(number)
}

// redactURL drops user info from a URL for logging
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	u.User = nil
	return u.String()
}
