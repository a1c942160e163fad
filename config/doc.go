// Package config loads connection settings for a jenkins.Manager.
//
// Nothing in this module reads the environment unless Load is called.
//
// Example Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	mgr, err := jenkins.NewFromConfig(ctx, cfg)
//
// Environment Variables:
//   - JENKINS_URL, JENKINS_USERNAME, JENKINS_PASSWORD
//   - JENKINS_SHARED_CLIENT, JENKINS_TIMEOUT, JENKINS_RATE_LIMIT, JENKINS_INSECURE_SKIP_VERIFY
//   - JENKINS_RESTART_POLL_INTERVAL, JENKINS_RESTART_POLL_TIMEOUT
//   - LOG_LEVEL, LOG_DEV
//
// LoadFile reads the same settings from a YAML or TOML file.
package config
