package jenkins

import (
	"context"
	"net/http"

	"github.com/GriffinCanCode/jenkins-manager/client"
	"go.uber.org/zap"
)

// CreateJob creates job name from a config.xml document. The server answers 200.
func (m *Manager) CreateJob(ctx context.Context, name, configXML string) error {
	if name == "" {
		return validationError("cannot create a job without a name")
	}

	r := m.newRequest(client.MethodPost, "/createItem").
		AddHeader("Content-type", string(client.MediaTypeApplicationXML)).
		AddParameter("name", name).
		SetBody(configXML, client.MediaTypeApplicationXML)

	_, err := m.call(ctx, r, http.StatusOK, rejection{
		kind:  ErrCreationFailed,
		op:    "create job",
		job:   name,
		crumb: m.Crumb(),
	})
	if err != nil {
		return err
	}

	m.logger.Info("job created", zap.String("job", name))
	return nil
}

// ForceCreateJob deletes name, ignoring any failure, then creates it
func (m *Manager) ForceCreateJob(ctx context.Context, name, configXML string) error {
	if err := m.DeleteJob(ctx, name); err != nil {
		m.logger.Debug("delete before create failed", zap.String("job", name), zap.Error(err))
	}
	return m.CreateJob(ctx, name, configXML)
}

// DeleteJob deletes job name. The server answers with a 302 to the job list.
func (m *Manager) DeleteJob(ctx context.Context, name string) error {
	if name == "" {
		return validationError("cannot delete a job without a name")
	}

	r := m.newRequest(client.MethodPost, jobPath(name, "doDelete")).
		AddHeader("Content-type", string(client.MediaTypeApplicationJSON))

	_, err := m.call(ctx, r, http.StatusFound, rejection{
		kind: ErrDeletionFailed,
		op:   "delete job",
		job:  name,
	})
	if err != nil {
		return err
	}

	m.logger.Info("job deleted", zap.String("job", name))
	return nil
}
