package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Queue errors
	ErrConflict         = fmt.Errorf("song already in queue")
	ErrNotFound         = fmt.Errorf("song not found in queue")
	ErrEmptyQueue       = fmt.Errorf("no songs in queue")
	ErrInvalidOperation = fmt.Errorf("invalid queue operation")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")

	// Upstream and transport errors
	ErrUpstreamFailure    = fmt.Errorf("upstream catalog request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
