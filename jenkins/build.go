package jenkins

import (
	"context"
	"fmt"
	"net/http"

	"github.com/GriffinCanCode/jenkins-manager/client"
	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// BuildJob triggers job name with its remote trigger token.
// The server answers 201 when the build is queued.
func (m *Manager) BuildJob(ctx context.Context, name, token string) error {
	return m.trigger(ctx, name, token, "build", client.MediaTypeFormURLEncoded, nil, nil)
}

// BuildJobWithFormPostParams triggers job name, posting body as form data
func (m *Manager) BuildJobWithFormPostParams(ctx context.Context, name, token, body string) error {
	return m.trigger(ctx, name, token, "build", client.MediaTypeFormURLEncoded, nil, &body)
}

// BuildJobWithParameters triggers a parameterized build. Parameters are sent
// in key order, followed by the token.
func (m *Manager) BuildJobWithParameters(ctx context.Context, name, token string, params map[string]string) error {
	return m.trigger(ctx, name, token, "buildWithParameters", client.MediaTypeApplicationJSON, params, nil)
}

func (m *Manager) trigger(ctx context.Context, name, token, buildType string, mediaType client.MediaType,
	params map[string]string, body *string) error {
	if name == "" {
		return validationError("cannot trigger a job without a name")
	}

	method := client.MethodGet
	if body != nil {
		method = client.MethodPost
	}

	r := m.newRequest(method, jobPath(name, buildType)).
		AddHeader("Content-type", string(mediaType)).
		AddParameters(params).
		AddParameter("token", token)
	if body != nil {
		r.SetBody(*body, mediaType)
	}

	_, err := m.call(ctx, r, http.StatusCreated, rejection{
		kind: ErrTriggerFailed,
		op:   "trigger job",
		job:  name,
	})
	if err != nil {
		return err
	}

	m.logger.Info("job triggered", zap.String("job", name), zap.String("type", buildType))
	return nil
}

// GetJenkinsBuildStatusData returns the api/json document of a build.
// A number <= 0 selects the last build.
func (m *Manager) GetJenkinsBuildStatusData(ctx context.Context, name string, number int) (map[string]any, error) {
	body, err := m.buildStatus(ctx, name, number)
	if err != nil {
		return nil, err
	}

	var data map[string]any
	if err := sonic.UnmarshalString(body, &data); err != nil {
		return nil, m.decodeError(name, number, err)
	}
	return data, nil
}

// GetLastBuildStatusData returns the api/json document of the last build
func (m *Manager) GetLastBuildStatusData(ctx context.Context, name string) (map[string]any, error) {
	return m.GetJenkinsBuildStatusData(ctx, name, 0)
}

// GetBuild returns a typed view of a build. A number <= 0 selects the last build.
func (m *Manager) GetBuild(ctx context.Context, name string, number int) (*Build, error) {
	body, err := m.buildStatus(ctx, name, number)
	if err != nil {
		return nil, err
	}

	var build Build
	if err := sonic.UnmarshalString(body, &build); err != nil {
		return nil, m.decodeError(name, number, err)
	}
	return &build, nil
}

func (m *Manager) buildStatus(ctx context.Context, name string, number int) (string, error) {
	if name == "" {
		return "", validationError("cannot get build data without a job name")
	}

	r := m.newRequest(client.MethodGet, jobPath(name, buildRef(number), "api/json")).
		AddHeader("Content-type", string(client.MediaTypeApplicationJSON))

	resp, err := m.call(ctx, r, http.StatusOK, rejection{
		kind: ErrStatusFetchFailed,
		op:   "get build " + buildRef(number),
		job:  name,
	})
	if err != nil {
		return "", err
	}
	return resp.Body(), nil
}

func (m *Manager) decodeError(name string, number int, err error) error {
	m.logger.Warn("malformed build data", zap.String("job", name), zap.Error(err))
	return fmt.Errorf("%w: malformed data for build %s of %q: %w", ErrStatusFetchFailed, buildRef(number), name, err)
}
