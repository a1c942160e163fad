package jenkins

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/GriffinCanCode/jenkins-manager/client"
	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// ListPlugins returns the installed plugins
func (m *Manager) ListPlugins(ctx context.Context) ([]Plugin, error) {
	r := m.newRequest(client.MethodGet, "/pluginManager/api/json").
		AddParameter("depth", "1").
		AddParameter("wrapper", "plugins")

	resp, err := m.call(ctx, r, http.StatusOK, rejection{
		kind: ErrPluginQueryFailed,
		op:   "list plugins",
	})
	if err != nil {
		return nil, err
	}

	var list pluginList
	if err := sonic.UnmarshalString(resp.Body(), &list); err != nil {
		return nil, fmt.Errorf("%w: malformed plugin list: %w", ErrPluginQueryFailed, err)
	}
	return list.Plugins, nil
}

// PluginExists reports whether a plugin with short name name is installed.
// Names are compared case-insensitively.
func (m *Manager) PluginExists(ctx context.Context, name string) (bool, error) {
	plugins, err := m.ListPlugins(ctx)
	if err != nil {
		return false, err
	}

	for _, p := range plugins {
		if strings.EqualFold(p.ShortName, name) {
			return true, nil
		}
	}
	return false, nil
}

// InstallPlugin asks the server to install name at version. The server
// answers with a 302 to the update center.
func (m *Manager) InstallPlugin(ctx context.Context, name, version string) error {
	if name == "" {
		return validationError("cannot install a plugin without a name")
	}
	if version == "" {
		return validationError("a version is required to install plugin %s", name)
	}

	body := fmt.Sprintf("<jenkins><install plugin='%s@%s' /></jenkins>", name, version)
	r := m.newRequest(client.MethodPost, "/pluginManager/installNecessaryPlugins").
		AddHeader("Content-type", string(client.MediaTypeTextXML)).
		SetBody(body, client.MediaTypeTextXML)

	_, err := m.call(ctx, r, http.StatusFound, rejection{
		kind: ErrPluginInstallFailed,
		op:   "install plugin " + name + "@" + version,
	})
	if err != nil {
		return err
	}

	m.logger.Info("plugin install requested", zap.String("plugin", name), zap.String("version", version))
	return nil
}
