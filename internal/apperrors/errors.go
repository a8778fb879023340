// Package apperrors holds the error taxonomy shared by the analysis pipeline.
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoData is returned when an operation runs before any dataset is loaded.
	ErrNoData = errors.New("no dataset loaded")
	// ErrInvalidReference is returned when a named column does not exist.
	ErrInvalidReference = errors.New("invalid column reference")
	// ErrMalformedSource is returned when ingestion input fails structural checks.
	ErrMalformedSource = errors.New("malformed source")
	// ErrInvalidArgument is returned for request parameters outside their allowed set.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUpstreamUnavailable is returned when an external fetch fails or times out.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// ColumnError reports a column name that does not exist in the current dataset.
type ColumnError struct {
	Op        string
	Column    string
	Available []string
}

func (e *ColumnError) Error() string {
	if len(e.Available) > 0 {
		return fmt.Sprintf("%s: unknown column %q (available: %s)", e.Op, e.Column, strings.Join(e.Available, ", "))
	}
	return fmt.Sprintf("%s: unknown column %q", e.Op, e.Column)
}

func (e *ColumnError) Unwrap() error { return ErrInvalidReference }

// SourceError reports an ingestion input that was rejected.
type SourceError struct {
	Source string
	Reason string
}

func (e *SourceError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("malformed source %s: %s", e.Source, e.Reason)
	}
	return fmt.Sprintf("malformed source: %s", e.Reason)
}

func (e *SourceError) Unwrap() error { return ErrMalformedSource }

// Codes returned by Code.
const (
	CodeNoData              = "no_data"
	CodeInvalidReference    = "invalid_reference"
	CodeMalformedSource     = "malformed_source"
	CodeInvalidArgument     = "invalid_argument"
	CodeUpstreamUnavailable = "upstream_unavailable"
	CodeInternal            = "internal_error"
)

// Code maps an error onto a short machine-readable code used by tool results.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrNoData):
		return CodeNoData
	case errors.Is(err, ErrInvalidReference):
		return CodeInvalidReference
	case errors.Is(err, ErrMalformedSource):
		return CodeMalformedSource
	case errors.Is(err, ErrInvalidArgument):
		return CodeInvalidArgument
	case errors.Is(err, ErrUpstreamUnavailable):
		return CodeUpstreamUnavailable
	default:
		return CodeInternal
	}
}
