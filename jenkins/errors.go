package jenkins

import (
	"errors"
	"fmt"
	"strings"

	"github.com/GriffinCanCode/jenkins-manager/client"
	"github.com/GriffinCanCode/jenkins-manager/jobxml"
)

var (
	// ErrValidationFailed reports bad caller input. No request was sent.
	ErrValidationFailed = errors.New("validation failed")

	// ErrServerRejected matches every *ServerRejectedError
	ErrServerRejected = errors.New("server rejected request")

	// ErrNetworkFailed matches failures to obtain a response at all
	ErrNetworkFailed = client.ErrNetworkFailed

	// ErrDuplicateConstraintViolated matches a second system Groovy script
	ErrDuplicateConstraintViolated = jobxml.ErrDuplicateSystemScript

	// ErrResourceNotFound matches a missing job template
	ErrResourceNotFound = jobxml.ErrTemplateNotFound
)

// Rejection kinds, one per operation family
var (
	ErrCreationFailed            = errors.New("job creation failed")
	ErrTriggerFailed             = errors.New("job trigger failed")
	ErrStatusFetchFailed         = errors.New("build status fetch failed")
	ErrDeletionFailed            = errors.New("job deletion failed")
	ErrPluginQueryFailed         = errors.New("plugin query failed")
	ErrPluginInstallFailed       = errors.New("plugin install failed")
	ErrRestartFailed             = errors.New("restart failed")
	ErrRestartVerificationFailed = errors.New("restart verification failed")
)

// ServerRejectedError is returned when the server answers with a status the
// operation does not accept
type ServerRejectedError struct {
	Kind       error
	Op         string
	Method     client.Method
	Endpoint   string
	Job        string
	Crumb      string
	StatusCode int
	Status     string
	Body       string
	summary    string
}

func (e *ServerRejectedError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s", e.Kind, e.Op)
	if e.Job != "" {
		fmt.Fprintf(&sb, " %q", e.Job)
	}
	fmt.Fprintf(&sb, ": %s %s returned %s", e.Method, e.Endpoint, e.Status)
	if e.Crumb != "" {
		fmt.Fprintf(&sb, " (crumb %s)", e.Crumb)
	}
	if e.summary != "" {
		fmt.Fprintf(&sb, ": %s", e.summary)
	}
	return sb.String()
}

// Is matches ErrServerRejected
func (e *ServerRejectedError) Is(target error) bool {
	return target == ErrServerRejected
}

// Unwrap returns the rejection kind
func (e *ServerRejectedError) Unwrap() error {
	return e.Kind
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidationFailed, fmt.Sprintf(format, args...))
}
