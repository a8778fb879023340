// Package tools exposes the dataset pipeline as MCP tools so an AI client can
// load, classify, query and summarize tabular data.
package tools

import (
	"sync/atomic"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/KaramelBytes/tabula-cli/internal/datasource"
	"github.com/KaramelBytes/tabula-cli/internal/ingest"
	"github.com/KaramelBytes/tabula-cli/internal/refine"
	"github.com/KaramelBytes/tabula-cli/internal/shape"
)

// Deps are the components the tools operate on. Store is required.
type Deps struct {
	Store      *dataset.Store
	Ingest     ingest.Options
	Population *datasource.Population
	Classify   shape.Options
	Detector   *refine.Detector
	Logger     *zap.Logger
}

// Server wraps the mcp-go MCPServer together with the session state the
// tools share: the store and the view last returned to the client.
type Server struct {
	mcp    *server.MCPServer
	deps   Deps
	logger *zap.Logger

	view        atomic.Pointer[refine.View]
	unsubscribe func()
}

// NewServer creates an MCP server with every tool registered.
func NewServer(name, version string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Store == nil {
		deps.Store = dataset.NewStore(deps.Logger)
	}
	if deps.Detector == nil {
		deps.Detector = refine.NewDetector(refine.DefaultThreshold)
	}
	if deps.Population == nil {
		deps.Population = datasource.NewPopulation("", 0, deps.Logger)
	}
	s := &Server{
		mcp:    server.NewMCPServer(name, version, server.WithToolCapabilities(true)),
		deps:   deps,
		logger: deps.Logger,
	}
	// Any load or clear invalidates what the client was looking at.
	s.unsubscribe = deps.Store.Subscribe(func(dataset.Event) {
		s.view.Store(nil)
	})

	registerDatasetTools(s)
	registerAnalysisTools(s)
	registerRefineTool(s)
	return s
}

// MCP returns the underlying MCPServer.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// Store returns the dataset store the tools share.
func (s *Server) Store() *dataset.Store {
	return s.deps.Store
}

// NewStreamableHTTPServer creates an HTTP transport for this server.
func (s *Server) NewStreamableHTTPServer() *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(
		s.mcp,
		server.WithStateLess(true),
	)
}

// ServeStdio serves the tools over stdin/stdout until EOF or a signal.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// Close detaches the server from the store.
func (s *Server) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

func (s *Server) setView(kind string, columns []string) {
	cols := make([]string, len(columns))
	copy(cols, columns)
	s.view.Store(&refine.View{Kind: kind, Columns: cols})
}
