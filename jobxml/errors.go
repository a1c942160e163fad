package jobxml

import "errors"

var (
	// ErrDuplicateSystemScript is returned when a job already has a system Groovy script
	ErrDuplicateSystemScript = errors.New("currently only one system Groovy script is supported")

	// ErrTemplateNotFound is returned when a template resource does not exist
	ErrTemplateNotFound = errors.New("template not found")

	// ErrInvalidTemplate is returned when a template root is not a project
	ErrInvalidTemplate = errors.New("invalid job template")
)
