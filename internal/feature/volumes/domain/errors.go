// Package domain defines domain-level errors for the volumes feature.
package domain

import "errors"

// Domain errors for volume aggregation.
// Callers match them with errors.Is; the wrapped message carries the operation and its parameters.
var (
	// ErrUpstreamData indicates that the upstream data source failed or returned rows
	// that could not be parsed (bad date, non-numeric amount).
	ErrUpstreamData = errors.New("upstream data unavailable")

	// ErrInvalidRange indicates that the requested range is unusable: start after end,
	// an unparsable date or month token, or a range longer than the allowed maximum.
	ErrInvalidRange = errors.New("invalid date range")
)
