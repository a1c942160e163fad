package jenkins

import (
	"context"
	"net/http"
	"testing"

	"github.com/GriffinCanCode/jenkins-manager/auth"
	"github.com/GriffinCanCode/jenkins-manager/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pluginsJSON = `{"_class":"hudson.LocalPluginManager","plugins":[
  {"active":true,"enabled":true,"longName":"Groovy","shortName":"Groovy","version":"2.1"},
  {"active":true,"enabled":true,"longName":"Script Security Plugin","shortName":"script-security","version":"1.51"}
]}`

func TestPluginExists(t *testing.T) {
	srv := testutil.NewFakeJenkins(t)
	srv.Respond(http.MethodGet, "/pluginManager/api/json", http.StatusOK, pluginsJSON)
	m := newManager(t, srv)

	tests := []struct {
		name string
		want bool
	}{
		{"groovy", true},
		{"GROOVY", true},
		{"Script-Security", true},
		{"git", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.PluginExists(context.Background(), tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "depth=1&wrapper=plugins", srv.RequestsTo("/pluginManager/api/json")[0].RawQuery)
}

func TestListPlugins(t *testing.T) {
	srv := testutil.NewFakeJenkins(t)
	srv.Respond(http.MethodGet, "/pluginManager/api/json", http.StatusOK, pluginsJSON)
	m := newManager(t, srv)

	plugins, err := m.ListPlugins(context.Background())
	require.NoError(t, err)
	require.Len(t, plugins, 2)
	assert.Equal(t, Plugin{ShortName: "script-security", LongName: "Script Security Plugin", Version: "1.51", Active: true, Enabled: true}, plugins[1])
}

func TestPluginExists_Rejected(t *testing.T) {
	srv := testutil.NewFakeJenkins(t)
	srv.Respond(http.MethodGet, "/pluginManager/api/json", http.StatusInternalServerError, "")
	m := newManager(t, srv)

	_, err := m.PluginExists(context.Background(), "groovy")
	assert.ErrorIs(t, err, ErrPluginQueryFailed)
	assert.ErrorIs(t, err, ErrServerRejected)
}

func TestInstallPlugin(t *testing.T) {
	srv := testutil.NewFakeJenkins(t)
	srv.Respond(http.MethodPost, "/pluginManager/installNecessaryPlugins", http.StatusFound, "")
	m := newManager(t, srv)

	require.NoError(t, m.InstallPlugin(context.Background(), "groovy", "2.1"))

	reqs := srv.RequestsTo("/pluginManager/installNecessaryPlugins")
	require.Len(t, reqs, 1)
	assert.Equal(t, "<jenkins><install plugin='groovy@2.1' /></jenkins>", reqs[0].Body)
	assert.Equal(t, "text/xml", reqs[0].Header.Get("Content-Type"))
	assert.Equal(t, testutil.TestCrumb, reqs[0].Header.Get(auth.CrumbHeader))
}

func TestInstallPlugin_Validation(t *testing.T) {
	srv := testutil.NewFakeJenkins(t)
	m := newManager(t, srv)

	assert.ErrorIs(t, m.InstallPlugin(context.Background(), "", "1.0"), ErrValidationFailed)
	assert.ErrorIs(t, m.InstallPlugin(context.Background(), "groovy", ""), ErrValidationFailed)
	assert.Empty(t, srv.RequestsTo("/pluginManager/installNecessaryPlugins"))
}

func TestInstallPlugin_Rejected(t *testing.T) {
	srv := testutil.NewFakeJenkins(t)
	srv.Respond(http.MethodPost, "/pluginManager/installNecessaryPlugins", http.StatusForbidden,
		"<html><head><title>Error 403 No valid crumb was included in the request</title></head><body></body></html>")
	m := newManager(t, srv)

	err := m.InstallPlugin(context.Background(), "groovy", "2.1")
	assert.ErrorIs(t, err, ErrPluginInstallFailed)
	assert.Contains(t, err.Error(), "No valid crumb")
}
