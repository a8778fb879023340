package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabula-cli/internal/ai"
	"github.com/KaramelBytes/tabula-cli/internal/baseline"
)

var (
	askModel         string
	askMaxTokens     int
	askTemp          float64
	askProfileTokens int
	askStream        bool
	askDryRun        bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a chat model about the current dataset (no tools, profile only)",
	Long: `Send the current dataset's profile and a question to a chat model through OpenRouter.
This is the tool-free baseline: the model sees the same data the tools do, but only as a
Markdown profile.`,
	Example: `  tabula ask "Which region had the highest revenue?"
  tabula ask "Summarize this table" --dry-run`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := currentDataset(openWorkspace())
		if err != nil {
			return err
		}
		question := strings.Join(args, " ")
		opt := baseline.Options{
			Model:         cfg.DefaultModel,
			MaxTokens:     cfg.MaxTokens,
			Temperature:   cfg.Temperature,
			ProfileTokens: askProfileTokens,
		}
		f := cmd.Flags()
		if f.Changed("model") {
			opt.Model = askModel
		}
		if f.Changed("max-tokens") {
			opt.MaxTokens = askMaxTokens
		}
		if f.Changed("temperature") {
			opt.Temperature = askTemp
		}

		w := cmd.OutOrStdout()
		if askDryRun {
			p, err := baseline.BuildPrompt(ds, question, opt)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "Tokens: prompt≈%d (instructions≈%d, profile≈%d, question≈%d; profile truncated: %v)\n\n",
				p.Tokens, p.Breakdown["instructions"], p.Breakdown["profile"], p.Breakdown["question"], p.Truncated)
			for _, m := range p.Messages {
				fmt.Fprintf(w, "--- %s ---\n%s\n\n", m.Role, m.Content)
			}
			return nil
		}

		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENROUTER_API_KEY")
		}
		client := ai.NewClient(apiKey,
			ai.WithHTTPTimeout(time.Duration(cfg.HTTPTimeoutSec)*time.Second),
			ai.WithRetry(ai.RetryPolicy{
				MaxAttempts: cfg.RetryMaxAttempts,
				BaseDelay:   time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond,
				MaxDelay:    time.Duration(cfg.RetryMaxDelayMs) * time.Millisecond,
			}),
			ai.WithLogger(logger),
		)

		var onDelta func(string)
		if askStream && !jsonOutput {
			onDelta = func(d string) { fmt.Fprint(w, d) }
		}
		ans, err := baseline.New(client, logger).Ask(cmd.Context(), ds, question, opt, onDelta)
		if err != nil {
			var authErr *ai.AuthError
			if errors.As(err, &authErr) || errors.Is(err, ai.ErrMissingAPIKey) {
				return fmt.Errorf("authentication failed: set OPENROUTER_API_KEY or add api_key in config (~/.tabula/config.yaml): %w", err)
			}
			return err
		}
		if ok, err := printJSON(w, ans); ok {
			return err
		}
		if onDelta != nil {
			fmt.Fprintln(w)
			return nil
		}
		out, err := newRenderer().Markdown(ans.Text)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, out)
		if ans.Usage.TotalTokens > 0 {
			fmt.Fprintf(w, "Tokens used: %d (prompt %d, completion %d)\n", ans.Usage.TotalTokens, ans.Usage.PromptTokens, ans.Usage.CompletionTokens)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVar(&askModel, "model", "", "model name (overrides config default_model)")
	askCmd.Flags().IntVar(&askMaxTokens, "max-tokens", 0, "max tokens in the answer (overrides config)")
	askCmd.Flags().Float64Var(&askTemp, "temperature", 0, "sampling temperature (overrides config)")
	askCmd.Flags().IntVar(&askProfileTokens, "profile-limit", baseline.DefaultProfileTokens, "truncate the dataset profile to about this many tokens")
	askCmd.Flags().BoolVar(&askStream, "stream", false, "stream the answer as it is generated")
	askCmd.Flags().BoolVar(&askDryRun, "dry-run", false, "print the prompt without calling the model")
}
