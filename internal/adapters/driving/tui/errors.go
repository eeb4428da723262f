package tui

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("tui: query service is required")

// ErrMissingUser is returned when no user is selected.
var ErrMissingUser = errors.New("tui: user is required")
