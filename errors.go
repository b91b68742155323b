package pref

import "errors"

var (
	// ErrInvalidArgument reports a bad key, value, or callback passed to a
	// store operation.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMissingProject reports that neither Dir nor ProjectName was set,
	// so no file location can be derived.
	ErrMissingProject = errors.New("either Dir or ProjectName must be set")
)
