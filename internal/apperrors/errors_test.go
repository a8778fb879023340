package apperrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestCode(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{ErrNoData, CodeNoData},
		{fmt.Errorf("query: %w", &ColumnError{Op: "sort", Column: "Profit"}), CodeInvalidReference},
		{&SourceError{Source: "a.pdf", Reason: "unsupported extension"}, CodeMalformedSource},
		{fmt.Errorf("%w: limit must be positive", ErrInvalidArgument), CodeInvalidArgument},
		{fmt.Errorf("fetch: %w", ErrUpstreamUnavailable), CodeUpstreamUnavailable},
		{errors.New("disk full"), CodeInternal},
	}
	for _, c := range cases {
		if got := Code(c.err); got != c.want {
			t.Errorf("Code(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}

func TestErrorMessages(t *testing.T) {
	e := &ColumnError{Op: "filter", Column: "Zone", Available: []string{"Region", "Sales"}}
	if got, want := e.Error(), `filter: unknown column "Zone" (available: Region, Sales)`; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	if got, want := (&SourceError{Reason: "no header columns"}).Error(), "malformed source: no header columns"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
