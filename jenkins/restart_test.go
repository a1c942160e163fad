package jenkins

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/GriffinCanCode/jenkins-manager/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRestartServer(t *testing.T, probeStatuses ...int) *testutil.FakeJenkins {
	t.Helper()

	srv := testutil.NewFakeJenkins(t)
	srv.Respond(http.MethodPost, "/safeRestart", http.StatusFound, "")
	srv.Sequence(http.MethodGet, "/api/json", probeStatuses...)
	return srv
}

func TestRestartJenkins_DownThenUp(t *testing.T) {
	srv := newRestartServer(t, http.StatusServiceUnavailable, http.StatusServiceUnavailable, http.StatusOK)
	m := newManager(t, srv)

	ok, err := m.RestartJenkins(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, srv.RequestsTo("/api/json"), 3)

	restart := srv.RequestsTo("/safeRestart")
	require.Len(t, restart, 1)
	assert.Equal(t, testutil.TestCrumb, restart[0].Header.Get("Jenkins-Crumb"))
}

func TestRestartJenkins_NeverWentDown(t *testing.T) {
	srv := newRestartServer(t, http.StatusOK)
	m := newManager(t, srv)

	ok, err := m.RestartJenkins(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, srv.RequestsTo("/api/json"), 1)
}

func TestRestartJenkins_NeverCameBack(t *testing.T) {
	srv := newRestartServer(t, http.StatusServiceUnavailable)
	m := newManager(t, srv, WithRestartPolling(10*time.Millisecond, 100*time.Millisecond))

	start := time.Now()
	ok, err := m.RestartJenkins(context.Background())
	require.Error(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrRestartVerificationFailed)
	assert.Contains(t, err.Error(), "503")
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestRestartJenkins_NonServiceErrorsDoNotCountAsDown(t *testing.T) {
	srv := newRestartServer(t, http.StatusBadGateway, http.StatusOK)
	m := newManager(t, srv)

	ok, err := m.RestartJenkins(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRestartJenkins_Rejected(t *testing.T) {
	srv := testutil.NewFakeJenkins(t)
	srv.Respond(http.MethodPost, "/safeRestart", http.StatusForbidden, "")
	m := newManager(t, srv)

	ok, err := m.RestartJenkins(context.Background())
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrRestartFailed)
	assert.Empty(t, srv.RequestsTo("/api/json"))
}

func TestRestartJenkins_ContextCanceled(t *testing.T) {
	srv := newRestartServer(t, http.StatusServiceUnavailable)
	m := newManager(t, srv, WithRestartPolling(20*time.Millisecond, time.Minute))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	ok, err := m.RestartJenkins(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRestartJenkins_ServerUnreachable(t *testing.T) {
	srv := newRestartServer(t, http.StatusServiceUnavailable)
	m := newManager(t, srv, WithRestartPolling(10*time.Millisecond, 50*time.Millisecond))

	// the restart request succeeds, then the server disappears for good
	srv.Handle(http.MethodGet, "/api/json", func(w http.ResponseWriter, _ *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			_ = conn.Close()
		}
	})

	_, err := m.RestartJenkins(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRestartVerificationFailed)
	assert.ErrorIs(t, err, ErrNetworkFailed)
}
