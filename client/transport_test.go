package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newEchoServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/redirect":
			http.Redirect(w, r, "/elsewhere", http.StatusFound)
		case "/teapot":
			w.WriteHeader(http.StatusTeapot)
			_, _ = io.WriteString(w, "short and stout")
		default:
			body, _ := io.ReadAll(r.Body)
			w.Header().Set("X-Method", r.Method)
			w.Header().Set("X-Query", r.URL.RawQuery)
			w.Header().Set("X-Content-Type", r.Header.Get(HeaderContentType))
			w.Header()["X-Tags"] = r.Header.Values("X-Tag")
			_, _ = w.Write(body)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPerform_Ephemeral(t *testing.T) {
	srv := newEchoServer(t)

	resp, err := NewRequest(MethodPost, NewEphemeral(WithLogger(zaptest.NewLogger(t)))).
		SetBaseURL(srv.URL+"/").
		SetEndpoint("/createItem").
		AddParameter("name", "my job").
		AddHeader("X-Tag", "a").
		AddHeader("X-Tag", "b").
		SetBody("<project/>", MediaTypeApplicationXML).
		Perform(context.Background())

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "<project/>", resp.Body())
	assert.Equal(t, "POST", resp.Header("X-Method"))
	assert.Equal(t, "name=my+job", resp.Header("X-Query"))
	assert.Equal(t, string(MediaTypeApplicationXML), resp.Header("X-Content-Type"))
	assert.Equal(t, []string{"a", "b"}, resp.Headers().Values("X-Tags"))
}

func TestPerform_NilTransportUsesEphemeral(t *testing.T) {
	srv := newEchoServer(t)

	resp, err := NewRequest(MethodGet, nil).SetBaseURL(srv.URL).Perform(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
}

func TestPerform_DoesNotFollowRedirects(t *testing.T) {
	srv := newEchoServer(t)

	resp, err := NewRequest(MethodPost, NewClient()).
		SetBaseURL(srv.URL).
		SetEndpoint("redirect").
		Perform(context.Background())

	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode())
	assert.Equal(t, "/elsewhere", resp.Header("Location"))
}

func TestPerform_ErrorStatusIsNotAnError(t *testing.T) {
	srv := newEchoServer(t)

	resp, err := NewRequest(MethodGet, NewClient()).
		SetBaseURL(srv.URL).
		SetEndpoint("teapot").
		Perform(context.Background())

	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode())
	assert.Equal(t, "418 I'm a teapot", resp.StatusCodeValue())
	assert.Equal(t, "short and stout", resp.Body())
}

func TestPerform_URIErrorBeforeNetwork(t *testing.T) {
	transport := &countingTransport{}

	_, err := NewRequest(MethodGet, transport).
		SetBaseURL("http://host").
		SetEndpoint("job/<bad>").
		Perform(context.Background())

	assert.ErrorIs(t, err, ErrURISyntax)
	assert.Zero(t, transport.calls)
}

func TestPerform_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewRequest(MethodGet, NewEphemeral(WithTimeout(2*time.Second))).
		SetBaseURL(url).
		SetEndpoint("api/json").
		AddParameter("token", "secret").
		Perform(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetworkFailed)
	assert.Contains(t, err.Error(), "/api/json")
	assert.NotContains(t, err.Error(), "secret")
}

func TestClient_CloseAndRecreate(t *testing.T) {
	srv := newEchoServer(t)
	c := NewClient()
	req := NewRequest(MethodGet, c).SetBaseURL(srv.URL)

	require.NoError(t, c.Close())
	_, err := req.Perform(context.Background())
	assert.ErrorIs(t, err, ErrClientClosed)
	assert.ErrorIs(t, err, ErrNetworkFailed)

	c.Recreate()
	resp, err := req.Perform(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
}

func TestClient_ConcurrentRecreate(t *testing.T) {
	srv := newEchoServer(t)
	c := NewClient(WithRegisterer(prometheus.NewRegistry()))

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := NewRequest(MethodGet, c).SetBaseURL(srv.URL).Perform(context.Background())
			errs <- err
		}()
		go func() {
			defer wg.Done()
			c.Recreate()
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int64(20), c.Stats().TotalRequests)
}

func TestClient_RateLimitHonorsContext(t *testing.T) {
	srv := newEchoServer(t)
	c := NewClient(WithRateLimit(0.001, 1))
	req := NewRequest(MethodGet, c).SetBaseURL(srv.URL)

	_, err := req.Perform(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = req.Perform(ctx)
	assert.ErrorIs(t, err, ErrNetworkFailed)
}

type countingTransport struct{ calls int }

func (c *countingTransport) Execute(context.Context, *PreparedRequest) (*ResponseEntity, error) {
	c.calls++
	return NewResponseEntity(http.StatusOK, "", nil), nil
}
