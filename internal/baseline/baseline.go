// Package baseline answers free-form questions about the current dataset by
// sending its profile to a chat model. It is the comparison point for the
// deterministic tools: same data, no tool calls.
package baseline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/KaramelBytes/tabula-cli/internal/ai"
	"github.com/KaramelBytes/tabula-cli/internal/analysis"
	"github.com/KaramelBytes/tabula-cli/internal/apperrors"
	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/KaramelBytes/tabula-cli/internal/utils"
)

// Instructions is the system prompt sent ahead of the profile.
const Instructions = `You are a data analyst. Answer the user's question using only the dataset profile below.
Quote figures exactly as they appear in the profile. If the profile does not contain enough
information to answer, say so plainly instead of guessing.`

// DefaultProfileTokens caps the profile section of the prompt.
const DefaultProfileTokens = 6000

// Options control prompt assembly and the model call.
type Options struct {
	Model         string
	MaxTokens     int
	Temperature   float64
	ProfileTokens int
	// Profile options; nil uses analysis.DefaultOptions.
	Profile       *analysis.Options
}

// Prompt is the assembled request and its token estimate.
type Prompt struct {
	Messages  []ai.Message
	Tokens    int
	Breakdown map[string]int
	Truncated bool
}

// Answer is the model's reply.
type Answer struct {
	Text      string
	Model     string
	Prompt    Prompt
	Usage     ai.Usage
	RequestID string
}

// Asker sends dataset questions to a chat runtime.
type Asker struct {
	rt     ai.Runtime
	logger *zap.Logger
}

// New returns an Asker backed by rt.
func New(rt ai.Runtime, logger *zap.Logger) *Asker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Asker{rt: rt, logger: logger}
}

// BuildPrompt renders the instructions, the dataset profile and the question.
func BuildPrompt(ds *dataset.Dataset, question string, opt Options) (Prompt, error) {
	if ds == nil {
		return Prompt{}, apperrors.ErrNoData
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return Prompt{}, fmt.Errorf("%w: question is empty", apperrors.ErrInvalidArgument)
	}
	limit := opt.ProfileTokens
	if limit <= 0 {
		limit = DefaultProfileTokens
	}
	popt := analysis.DefaultOptions()
	if opt.Profile != nil {
		popt = *opt.Profile
	}
	profile := analysis.Profile(ds, popt).Markdown()
	var truncated bool
	if utils.CountTokens(profile) > limit {
		profile = utils.TruncateToTokenLimit(profile, limit)
		truncated = true
	}

	var user strings.Builder
	user.WriteString("## Dataset profile\n\n")
	user.WriteString(profile)
	user.WriteString("\n\n## Question\n\n")
	user.WriteString(question)

	msgs := []ai.Message{
		{Role: "system", Content: Instructions},
		{Role: "user", Content: user.String()},
	}
	breakdown := utils.TokenBreakdown(map[string]string{
		"instructions": Instructions,
		"profile":      profile,
		"question":     question,
	})
	tokens := utils.CountTokens(Instructions) + utils.CountTokens(user.String())
	return Prompt{Messages: msgs, Tokens: tokens, Breakdown: breakdown, Truncated: truncated}, nil
}

// Ask builds the prompt and sends it. When onDelta is non-nil and the runtime
// streams, partial output is delivered through it as it arrives.
func (a *Asker) Ask(ctx context.Context, ds *dataset.Dataset, question string, opt Options, onDelta func(string)) (*Answer, error) {
	if opt.Model == "" {
		return nil, errors.New("model cannot be empty")
	}
	p, err := BuildPrompt(ds, question, opt)
	if err != nil {
		return nil, err
	}
	req := ai.GenerateRequest{
		Model:       opt.Model,
		Messages:    p.Messages,
		MaxTokens:   opt.MaxTokens,
		Temperature: opt.Temperature,
	}
	a.logger.Debug("baseline prompt",
		zap.String("dataset", ds.ID),
		zap.Int("tokens", p.Tokens),
		zap.Bool("truncated", p.Truncated),
		zap.String("model", opt.Model))

	if sr, ok := a.rt.(ai.StreamRuntime); ok && onDelta != nil {
		var sb strings.Builder
		err := sr.GenerateStream(ctx, req, func(d string) {
			sb.WriteString(d)
			onDelta(d)
		})
		if err != nil {
			return nil, fmt.Errorf("stream answer: %w", err)
		}
		return &Answer{Text: sb.String(), Model: opt.Model, Prompt: p}, nil
	}

	resp, err := a.rt.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	return &Answer{
		Text:      resp.Text(),
		Model:     opt.Model,
		Prompt:    p,
		Usage:     resp.Usage,
		RequestID: resp.RequestID,
	}, nil
}
