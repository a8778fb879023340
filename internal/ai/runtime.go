package ai

import "context"

// Runtime is the chat backend the baseline asks questions through.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// StreamRuntime is an optional extension that supports streaming output.
type StreamRuntime interface {
	GenerateStream(ctx context.Context, req GenerateRequest, onDelta func(string)) error
}

var (
	_ Runtime       = (*Client)(nil)
	_ StreamRuntime = (*Client)(nil)
)
