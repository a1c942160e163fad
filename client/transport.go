package client

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/GriffinCanCode/jenkins-manager/internal/id"
	"github.com/GriffinCanCode/jenkins-manager/internal/logging"
	"github.com/GriffinCanCode/jenkins-manager/internal/monitoring"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "jenkins-manager/1.0"
)

// Transport executes a prepared request. Any status code is returned as a
// response; only failures to obtain one are errors.
type Transport interface {
	Execute(ctx context.Context, req *PreparedRequest) (*ResponseEntity, error)
}

// Stats holds running totals for a transport
type Stats struct {
	TotalRequests int64
	TotalErrors   int64
	TotalDuration time.Duration
}

type options struct {
	logger     *zap.Logger
	registerer prometheus.Registerer
	timeout    time.Duration
	rateLimit  rate.Limit
	burst      int
	insecure   bool
	userAgent  string
}

// Option configures a Client or Ephemeral transport
type Option func(*options)

// WithLogger sets the logger. Nil means no logging.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRegisterer registers request metrics on reg
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithTimeout bounds each request. Zero disables the timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithRateLimit caps a shared Client at rps requests per second.
// A non-positive rps means unlimited.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *options) {
		if rps <= 0 {
			o.rateLimit = rate.Inf
			o.burst = 0
			return
		}
		if burst < 1 {
			burst = 1
		}
		o.rateLimit = rate.Limit(rps)
		o.burst = burst
	}
}

// WithInsecureSkipVerify disables TLS certificate verification
func WithInsecureSkipVerify(skip bool) Option {
	return func(o *options) {
		o.insecure = skip
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(userAgent string) Option {
	return func(o *options) {
		o.userAgent = userAgent
	}
}

func newOptions(opts []Option) options {
	o := options{
		timeout:   DefaultTimeout,
		rateLimit: rate.Inf,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = logging.OrNop(o.logger)
	return o
}

// Client is a long-lived transport sharing one connection pool across calls.
// It is safe for concurrent use.
type Client struct {
	mu      sync.RWMutex
	resty   *resty.Client
	closed  bool
	limiter *rate.Limiter
	metrics *monitoring.Metrics
	opts    options
}

// NewClient creates a shared transport
func NewClient(opts ...Option) *Client {
	o := newOptions(opts)
	return &Client{
		resty:   newRestyClient(o),
		limiter: rate.NewLimiter(o.rateLimit, o.burst),
		metrics: monitoring.NewMetrics(o.registerer),
		opts:    o,
	}
}

// Execute sends req on the shared pool. Recreate waits for in-flight calls.
func (c *Client) Execute(ctx context.Context, req *PreparedRequest) (*ResponseEntity, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, ErrClientClosed
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrNetworkFailed, req.Method, req.URL.Path, err)
	}

	return execute(ctx, c.resty, req, c.opts.logger, c.metrics)
}

// Recreate replaces the underlying client and drops pooled connections.
// A closed Client becomes usable again.
func (c *Client) Recreate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.resty
	c.resty = newRestyClient(c.opts)
	c.closed = false
	old.GetClient().CloseIdleConnections()

	c.metrics.RecordRecreate()
	c.opts.logger.Info("HTTP client recreated")
}

// Close releases pooled connections. Execute fails until Recreate is called.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.resty.GetClient().CloseIdleConnections()
	return nil
}

// Stats returns the running request totals
func (c *Client) Stats() Stats {
	return statsFrom(c.metrics)
}

// Ephemeral builds a fresh client for every call and releases it afterwards
type Ephemeral struct {
	metrics *monitoring.Metrics
	opts    options
}

// NewEphemeral creates a per-call transport
func NewEphemeral(opts ...Option) *Ephemeral {
	o := newOptions(opts)
	return &Ephemeral{
		metrics: monitoring.NewMetrics(o.registerer),
		opts:    o,
	}
}

// Execute sends req on a client that is discarded when the call returns
func (e *Ephemeral) Execute(ctx context.Context, req *PreparedRequest) (*ResponseEntity, error) {
	rc := newRestyClient(e.opts)
	defer rc.GetClient().CloseIdleConnections()

	return execute(ctx, rc, req, e.opts.logger, e.metrics)
}

// Stats returns the running request totals
func (e *Ephemeral) Stats() Stats {
	return statsFrom(e.metrics)
}

func statsFrom(m *monitoring.Metrics) Stats {
	s := m.Snapshot()
	return Stats{
		TotalRequests: s.TotalRequests,
		TotalErrors:   s.TotalErrors,
		TotalDuration: s.TotalDuration,
	}
}

func newRestyClient(o options) *resty.Client {
	// pooled transport, retries stay off
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.Logger = nil

	rc := resty.New()
	rc.SetTransport(retryClient.HTTPClient.Transport).
		SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		})).
		SetAllowGetMethodPayload(true).
		SetHeader(HeaderUserAgent, o.userAgent).
		SetLogger(o.logger.Sugar())

	if o.timeout > 0 {
		rc.SetTimeout(o.timeout)
	}
	if o.insecure {
		rc.SetTLSClientConfig(&tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: true, //nolint:gosec // opt-in for self-signed build servers
		})
	}
	return rc
}

func execute(ctx context.Context, rc *resty.Client, req *PreparedRequest, logger *zap.Logger, metrics *monitoring.Metrics) (*ResponseEntity, error) {
	requestID := id.NewRequestID()
	method := req.Method.String()

	r := rc.R().SetContext(ctx)
	for key, values := range req.Header {
		for _, value := range values {
			r.Header.Add(key, value)
		}
	}
	if req.HasBody {
		r.SetBody(req.Body)
	}

	// query strings may carry build tokens, log the path only
	logger.Debug("sending request",
		zap.String("request_id", requestID.String()),
		zap.String("method", method),
		zap.String("path", req.URL.Path),
	)

	start := time.Now()
	resp, err := r.Execute(method, req.URL.String())
	duration := time.Since(start)

	if err != nil {
		err = redactQuery(err)
		metrics.RecordError(method, duration)
		logger.Warn("request failed",
			zap.String("request_id", requestID.String()),
			zap.String("method", method),
			zap.String("path", req.URL.Path),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %s %s: %w", ErrNetworkFailed, method, req.URL.Path, err)
	}

	raw := resp.Body()
	metrics.RecordRequest(method, resp.StatusCode(), duration, len(raw))
	logger.Debug("received response",
		zap.String("request_id", requestID.String()),
		zap.String("method", method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("duration", duration),
	)

	header := resp.Header()
	return NewResponseEntity(resp.StatusCode(), decodeBody(raw, header.Get(HeaderContentType)), header), nil
}

// redactQuery hides the query string of a failed URL, it may carry tokens
func redactQuery(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	if u, perr := url.Parse(urlErr.URL); perr == nil && u.RawQuery != "" {
		u.RawQuery = "redacted"
		urlErr.URL = u.String()
	}
	return err
}
