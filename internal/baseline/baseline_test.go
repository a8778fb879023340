package baseline_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tabula-cli/internal/ai"
	"github.com/KaramelBytes/tabula-cli/internal/apperrors"
	"github.com/KaramelBytes/tabula-cli/internal/baseline"
	"github.com/KaramelBytes/tabula-cli/internal/dataset"
)

func sales(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New([]string{"Region", "Revenue"}, []dataset.Row{
		{"Region": dataset.Str("North"), "Revenue": dataset.Num(120)},
		{"Region": dataset.Str("South"), "Revenue": dataset.Num(80)},
	}, "sales.csv")
	require.NoError(t, err)
	return ds
}

type fakeRuntime struct {
	got ai.GenerateRequest
}

func (f *fakeRuntime) Generate(_ context.Context, req ai.GenerateRequest) (*ai.GenerateResponse, error) {
	f.got = req
	return &ai.GenerateResponse{Choices: []ai.Choice{{Message: ai.Message{Role: "assistant", Content: "North leads."}}}}, nil
}

func TestBuildPromptIncludesProfileAndQuestion(t *testing.T) {
	p, err := baseline.BuildPrompt(sales(t), "  Which region sells most? ", baseline.Options{})
	require.NoError(t, err)
	require.Len(t, p.Messages, 2)
	assert.Equal(t, "system", p.Messages[0].Role)
	user := p.Messages[1].Content
	assert.Contains(t, user, "# Profile: sales.csv")
	assert.Contains(t, user, "Revenue")
	assert.True(t, strings.HasSuffix(user, "Which region sells most?"))
	assert.False(t, p.Truncated)
	assert.Positive(t, p.Tokens)
}

func TestBuildPromptTruncatesProfile(t *testing.T) {
	p, err := baseline.BuildPrompt(sales(t), "q", baseline.Options{ProfileTokens: 5})
	require.NoError(t, err)
	assert.True(t, p.Truncated)
	assert.LessOrEqual(t, p.Breakdown["profile"], 5)
	assert.NotContains(t, p.Messages[1].Content, "## Sample rows")
}

func TestBuildPromptErrors(t *testing.T) {
	_, err := baseline.BuildPrompt(nil, "q", baseline.Options{})
	assert.ErrorIs(t, err, apperrors.ErrNoData)
	_, err = baseline.BuildPrompt(sales(t), "   ", baseline.Options{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestAskUsesRuntime(t *testing.T) {
	rt := &fakeRuntime{}
	ans, err := baseline.New(rt, nil).Ask(context.Background(), sales(t), "Who leads?", baseline.Options{Model: "m", MaxTokens: 64}, nil)
	require.NoError(t, err)
	assert.Equal(t, "North leads.", ans.Text)
	assert.Equal(t, "m", rt.got.Model)
	assert.Equal(t, 64, rt.got.MaxTokens)
}

func TestAskOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ai.GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) != 2 {
			http.Error(w, "bad", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(ai.GenerateResponse{
			Choices: []ai.Choice{{Message: ai.Message{Role: "assistant", Content: "South trails."}}},
			Usage:   ai.Usage{TotalTokens: 42},
		})
	}))
	defer srv.Close()

	client := ai.NewClient("key", ai.WithBaseURL(srv.URL))
	ans, err := baseline.New(client, nil).Ask(context.Background(), sales(t), "Who trails?", baseline.Options{Model: "m"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "South trails.", ans.Text)
	assert.Equal(t, 42, ans.Usage.TotalTokens)
}

func TestAskSurfacesAuthErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"no key"}}`))
	}))
	defer srv.Close()

	client := ai.NewClient("bad", ai.WithBaseURL(srv.URL))
	_, err := baseline.New(client, nil).Ask(context.Background(), sales(t), "q", baseline.Options{Model: "m"}, nil)
	var authErr *ai.AuthError
	require.True(t, errors.As(err, &authErr), "got %v", err)
}
