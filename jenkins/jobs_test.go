package jenkins

import (
	"context"
	"net/http"
	"testing"

	"github.com/GriffinCanCode/jenkins-manager/auth"
	"github.com/GriffinCanCode/jenkins-manager/internal/testutil"
	"github.com/GriffinCanCode/jenkins-manager/jobxml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateJob(t *testing.T) {
	srv := testutil.NewFakeJenkins(t)
	srv.Respond(http.MethodPost, "/createItem", http.StatusOK, "")
	m := newManager(t, srv)

	doc, err := jobxml.New()
	require.NoError(t, err)
	xml := doc.AddBashScript("make").Render()

	require.NoError(t, m.CreateJob(context.Background(), "app", xml))

	reqs := srv.RequestsTo("/createItem")
	require.Len(t, reqs, 1)
	assert.Equal(t, "name=app", reqs[0].RawQuery)
	assert.Equal(t, xml, reqs[0].Body)
	assert.Equal(t, "application/xml", reqs[0].Header.Get("Content-Type"))
	assert.Equal(t, testutil.TestCrumb, reqs[0].Header.Get(auth.CrumbHeader))
	assert.Equal(t, "Basic YWRtaW46c2VjcmV0", reqs[0].Header.Get("Authorization"))
}

func TestCreateJob_Rejected(t *testing.T) {
	srv := testutil.NewFakeJenkins(t)
	srv.Respond(http.MethodPost, "/createItem", http.StatusBadRequest, "A job already exists with the name app")
	m := newManager(t, srv)

	err := m.CreateJob(context.Background(), "app", "<project/>")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServerRejected)
	assert.ErrorIs(t, err, ErrCreationFailed)

	var rejected *ServerRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, http.StatusBadRequest, rejected.StatusCode)
	assert.Equal(t, "app", rejected.Job)
	assert.Equal(t, testutil.TestCrumb, rejected.Crumb)
	assert.Equal(t, "A job already exists with the name app", rejected.Body)
	assert.Contains(t, err.Error(), "400 Bad Request")
	assert.Contains(t, err.Error(), testutil.TestCrumb)
}

func TestEmptyJobName_NeverReachesNetwork(t *testing.T) {
	transport := &testutil.MockTransport{}
	m, err := New(context.Background(), "http://jenkins:8080", "admin", "secret",
		WithTransport(transport),
		WithAuthenticator(auth.NewBasic("admin", "secret")),
	)
	require.NoError(t, err)

	ctx := context.Background()
	calls := map[string]func() error{
		"create":      func() error { return m.CreateJob(ctx, "", "<project/>") },
		"forceCreate": func() error { return m.ForceCreateJob(ctx, "", "<project/>") },
		"delete":      func() error { return m.DeleteJob(ctx, "") },
		"build":       func() error { return m.BuildJob(ctx, "", "t") },
		"buildForm":   func() error { return m.BuildJobWithFormPostParams(ctx, "", "t", "a=b") },
		"buildParams": func() error {
			return m.BuildJobWithParameters(ctx, "", "t", map[string]string{"a": "b"})
		},
		"status": func() error {
			_, err := m.GetJenkinsBuildStatusData(ctx, "", 1)
			return err
		},
		"build data": func() error {
			_, err := m.GetBuild(ctx, "", 0)
			return err
		},
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, call(), ErrValidationFailed)
		})
	}
	transport.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestForceCreateJob_IgnoresDeleteFailure(t *testing.T) {
	srv := testutil.NewFakeJenkins(t)
	srv.Respond(http.MethodPost, "/createItem", http.StatusOK, "")
	m := newManager(t, srv)

	require.NoError(t, m.ForceCreateJob(context.Background(), "app", "<project/>"))

	assert.Len(t, srv.RequestsTo("/job/app/doDelete"), 1)
	assert.Len(t, srv.RequestsTo("/createItem"), 1)
}

func TestForceCreateJob_PropagatesCreateFailure(t *testing.T) {
	srv := testutil.NewFakeJenkins(t)
	srv.Respond(http.MethodPost, "/job/app/doDelete", http.StatusFound, "")
	srv.Respond(http.MethodPost, "/createItem", http.StatusInternalServerError, "")
	m := newManager(t, srv)

	err := m.ForceCreateJob(context.Background(), "app", "<project/>")
	assert.ErrorIs(t, err, ErrCreationFailed)
}

func TestDeleteJob(t *testing.T) {
	srv := testutil.NewFakeJenkins(t)
	srv.Respond(http.MethodPost, "/job/app/doDelete", http.StatusFound, "")
	m := newManager(t, srv)

	require.NoError(t, m.DeleteJob(context.Background(), "app"))

	reqs := srv.RequestsTo("/job/app/doDelete")
	require.Len(t, reqs, 1)
	assert.Equal(t, testutil.TestCrumb, reqs[0].Header.Get(auth.CrumbHeader))
}

func TestDeleteJob_Rejected(t *testing.T) {
	srv := testutil.NewFakeJenkins(t)
	m := newManager(t, srv)

	err := m.DeleteJob(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrDeletionFailed)
	assert.ErrorIs(t, err, ErrServerRejected)
	assert.Contains(t, err.Error(), "404")
}

func TestJobNameIsPathEscaped(t *testing.T) {
	srv := testutil.NewFakeJenkins(t)
	srv.Respond(http.MethodPost, "/job/my app/doDelete", http.StatusFound, "")
	m := newManager(t, srv)

	require.NoError(t, m.DeleteJob(context.Background(), "my app"))
}
