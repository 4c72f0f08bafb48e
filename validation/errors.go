package validation

import "errors"

var (
	// ErrEmptyQuery rejects a query that is empty or only whitespace
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrInvalidRole rejects a role other than doctor, patient or general
	ErrInvalidRole = errors.New("invalid role")

	// ErrInvalidStrategy rejects an unknown matching strategy
	ErrInvalidStrategy = errors.New("invalid strategy")

	// ErrInvalidConditionName rejects a malformed condition name path parameter
	ErrInvalidConditionName = errors.New("invalid condition name")
)
