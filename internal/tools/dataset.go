package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/KaramelBytes/tabula-cli/internal/apperrors"
	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/KaramelBytes/tabula-cli/internal/datasource"
	"github.com/KaramelBytes/tabula-cli/internal/ingest"
	"github.com/KaramelBytes/tabula-cli/internal/suggest"
)

// Built-in sources accepted by load_source.
const (
	SourcePopulation = "population"
	SourceStocks     = "stocks"
)

type loadResult struct {
	DatasetID   string          `json:"datasetId"`
	Source      string          `json:"source"`
	RowCount    int             `json:"rowCount"`
	Columns     []string        `json:"columns"`
	Live        *bool           `json:"live,omitempty"`
	Note        string          `json:"note,omitempty"`
	Suggestions *suggest.Result `json:"suggestions,omitempty"`
}

type clearResult struct {
	Cleared bool `json:"cleared"`
}

func newLoadResult(ds *dataset.Dataset) loadResult {
	res := loadResult{
		DatasetID: ds.ID,
		Source:    ds.Source,
		RowCount:  ds.RowCount(),
		Columns:   ds.Columns,
	}
	if sg, err := suggest.Generate(ds); err == nil {
		res.Suggestions = sg
	}
	return res
}

func registerDatasetTools(s *Server) {
	registerLoadDatasetTool(s)
	registerLoadSourceTool(s)
	registerClearDatasetTool(s)
}

func registerLoadDatasetTool(s *Server) {
	tool := mcp.NewTool(
		"load_dataset",
		mcp.WithDescription(fmt.Sprintf(
			"Load a tabular file as the current dataset, replacing any previous one. Supported extensions: %s.",
			strings.Join(ingest.Extensions(), ", "))),
		mcp.WithString(
			"path",
			mcp.Required(),
			mcp.Description("Path of the file to load"),
		),
		mcp.WithString(
			"sheet",
			mcp.Description("Worksheet name for .xlsx files (default: first sheet)"),
		),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.mcp.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := req.RequireString("path")
		if err != nil {
			return NewErrorResult(apperrors.CodeInvalidArgument, err.Error()), nil
		}
		opt := s.deps.Ingest
		if sheet := strings.TrimSpace(getOptionalString(req, "sheet")); sheet != "" {
			opt.Sheet = sheet
		}

		ticket := s.deps.Store.Begin()
		ds, err := ingest.LoadFile(path, opt)
		if err != nil {
			return s.domainError("load_dataset", err)
		}
		if !s.deps.Store.Commit(ticket, ds) {
			return NewErrorResult("superseded", "a newer load replaced this one before it finished"), nil
		}
		return jsonResult(newLoadResult(ds))
	})
}

func registerLoadSourceTool(s *Server) {
	tool := mcp.NewTool(
		"load_source",
		mcp.WithDescription("Load a built-in dataset as the current dataset. population fetches World Bank figures and falls back to cached figures when offline; stocks returns sample quotes."),
		mcp.WithString(
			"source",
			mcp.Required(),
			mcp.Enum(SourcePopulation, SourceStocks),
			mcp.Description("Which built-in dataset to load"),
		),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.mcp.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("source")
		if err != nil {
			return NewErrorResult(apperrors.CodeInvalidArgument, err.Error()), nil
		}
		ticket := s.deps.Store.Begin()
		var out datasource.Outcome
		switch strings.ToLower(strings.TrimSpace(name)) {
		case SourcePopulation:
			out = s.deps.Population.Load(ctx)
		case SourceStocks:
			out = datasource.Stocks()
		default:
			return NewErrorResult(apperrors.CodeInvalidArgument,
				fmt.Sprintf("unknown source %q (use %s or %s)", name, SourcePopulation, SourceStocks)), nil
		}
		if !s.deps.Store.Commit(ticket, out.Dataset) {
			return NewErrorResult("superseded", "a newer load replaced this one before it finished"), nil
		}
		res := newLoadResult(out.Dataset)
		live := out.Live
		res.Live, res.Note = &live, out.Note
		return jsonResult(res)
	})
}

func registerClearDatasetTool(s *Server) {
	tool := mcp.NewTool(
		"clear_dataset",
		mcp.WithDescription("Drop the current dataset. Later tools report no_data until something is loaded."),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	)

	s.mcp.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.deps.Store.Clear()
		return jsonResult(clearResult{Cleared: true})
	})
}
