package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/tabula-cli/internal/apperrors"
	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/KaramelBytes/tabula-cli/internal/refine"
	"github.com/KaramelBytes/tabula-cli/internal/shape"
	"github.com/KaramelBytes/tabula-cli/internal/tools"
	"github.com/KaramelBytes/tabula-cli/internal/workspace"
)

// Version is reported to MCP clients.
var Version = "dev"

var (
	serveHTTP bool
	serveAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dataset tools to AI clients over MCP",
	Long: `Start an MCP server exposing load_dataset, load_source, classify_dataset, query_data,
generate_insight, suggest_queries, detect_refinement and clear_dataset. The server starts with
the CLI's current dataset and saves every load or clear back to it. Uses stdio unless --http
is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, detach, err := newToolServer(openWorkspace())
		if err != nil {
			return err
		}
		defer detach()
		defer srv.Close()

		if !serveHTTP {
			return srv.ServeStdio()
		}
		addr := cfg.ServeAddr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		mux := http.NewServeMux()
		mux.Handle("/mcp", srv.NewStreamableHTTPServer())
		httpSrv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		errCh := make(chan error, 1)
		go func() { errCh <- httpSrv.ListenAndServe() }()
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Serving MCP on http://%s/mcp\n", addr)

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	},
}

// newToolServer builds the MCP server over a store seeded from ws. Store
// changes are written back to ws until the returned detach func is called.
func newToolServer(ws *workspace.Workspace) (*tools.Server, func(), error) {
	store := dataset.NewStore(logger)
	ds, err := ws.LoadDataset()
	switch {
	case err == nil:
		store.Set(ds)
	case !errors.Is(err, apperrors.ErrNoData):
		return nil, nil, err
	}

	detach := store.Subscribe(func(ev dataset.Event) {
		var err error
		switch ev.Kind {
		case dataset.EventLoaded:
			err = ws.SaveDataset(ev.Dataset)
		case dataset.EventCleared:
			err = ws.Clear()
		}
		if err != nil {
			logger.Warn("could not persist dataset change", zap.Stringer("event", ev.Kind), zap.Error(err))
		}
	})

	srv := tools.NewServer("tabula", Version, tools.Deps{
		Store:      store,
		Ingest:     ingestOptions(),
		Population: newPopulation(),
		Classify:   shape.Options{SampleRows: cfg.ClassifySampleRows},
		Detector:   refine.NewDetector(cfg.RefineThreshold),
		Logger:     logger,
	})
	return srv, detach, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&serveHTTP, "http", false, "serve streamable HTTP instead of stdio")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (overrides config serve_addr)")
}
