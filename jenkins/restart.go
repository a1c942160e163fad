package jenkins

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/GriffinCanCode/jenkins-manager/client"
	"go.uber.org/zap"
)

// RestartJenkins requests a safe restart and waits for the server to come
// back. It returns true only if the server was seen down (503) and then up
// (200). A server that never answers 200 within the poll timeout fails with
// ErrRestartVerificationFailed.
func (m *Manager) RestartJenkins(ctx context.Context) (bool, error) {
	r := m.newRequest(client.MethodPost, "/safeRestart").
		AddHeader("Content-type", string(client.MediaTypeApplicationJSON))

	if _, err := m.call(ctx, r, http.StatusFound, rejection{
		kind: ErrRestartFailed,
		op:   "restart",
	}); err != nil {
		return false, err
	}

	m.logger.Info("restart requested, waiting for server",
		zap.Duration("interval", m.pollInterval),
		zap.Duration("timeout", m.pollTimeout),
	)
	return m.verifyRestart(ctx)
}

// verifyRestart sleeps one interval before every probe and stops at the first
// 200 or once the timeout has passed. Probes that get no response count as
// neither down nor up.
func (m *Manager) verifyRestart(ctx context.Context) (bool, error) {
	deadline := time.Now().Add(m.pollTimeout)
	probe := m.newRequest(client.MethodGet, "/api/json")

	var (
		sawDown, sawUp bool
		last           *client.ResponseEntity
		lastErr        error
		attempts       int
	)

	timer := time.NewTimer(m.pollInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, fmt.Errorf("restart verification interrupted: %w", ctx.Err())
		case <-timer.C:
		}

		attempts++
		resp, err := probe.Perform(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return false, fmt.Errorf("restart verification interrupted: %w", ctx.Err())
			}
			lastErr = err
			m.logger.Debug("restart probe failed", zap.Int("attempt", attempts), zap.Error(err))
		} else {
			last, lastErr = resp, nil
			switch resp.StatusCode() {
			case http.StatusServiceUnavailable:
				sawDown = true
			case http.StatusOK:
				sawUp = true
			}
			m.logger.Debug("restart probe", zap.Int("attempt", attempts), zap.Int("status", resp.StatusCode()))
		}

		if sawUp || !time.Now().Before(deadline) {
			break
		}
		timer.Reset(m.pollInterval)
	}

	if !sawUp {
		return false, m.verificationError(probe, last, lastErr)
	}

	verified := sawDown && sawUp
	if verified {
		m.logger.Info("restart verified", zap.Int("attempts", attempts))
	} else {
		m.logger.Warn("server answered without going down", zap.Int("attempts", attempts))
	}
	return verified, nil
}

func (m *Manager) verificationError(probe *client.Request, last *client.ResponseEntity, lastErr error) error {
	m.logger.Warn("could not verify restart", zap.Duration("timeout", m.pollTimeout))

	if lastErr != nil || last == nil {
		return fmt.Errorf("%w: no answer from %s within %s: %w",
			ErrRestartVerificationFailed, probe.Endpoint(), m.pollTimeout, lastErr)
	}
	return rejection{kind: ErrRestartVerificationFailed, op: "verify restart"}.from(probe, last)
}
