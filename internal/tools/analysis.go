package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/KaramelBytes/tabula-cli/internal/apperrors"
	"github.com/KaramelBytes/tabula-cli/internal/insight"
	"github.com/KaramelBytes/tabula-cli/internal/query"
	"github.com/KaramelBytes/tabula-cli/internal/shape"
	"github.com/KaramelBytes/tabula-cli/internal/suggest"
)

// View kinds recorded for refinement detection.
const (
	viewQuery          = "query"
	viewInsight        = "insight"
	viewClassification = "classification"
)

func registerAnalysisTools(s *Server) {
	registerClassifyTool(s)
	registerQueryTool(s)
	registerInsightTool(s)
	registerSuggestTool(s)
}

func registerClassifyTool(s *Server) {
	tool := mcp.NewTool(
		"classify_dataset",
		mcp.WithDescription("Classify the current dataset as time-series, ranking, comparison or categorical-numeric and recommend how to present it."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	)

	s.mcp.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ds, err := s.deps.Store.Get()
		if err != nil {
			return s.domainError("classify_dataset", err)
		}
		c, err := shape.ClassifyWith(ds, s.deps.Classify)
		if err != nil {
			return s.domainError("classify_dataset", err)
		}
		s.setView(viewClassification, ds.Columns)
		return jsonResult(c)
	})
}

func registerQueryTool(s *Server) {
	tool := mcp.NewTool(
		"query_data",
		mcp.WithDescription("Filter, sort and limit the rows of the current dataset. Filtering is a case-insensitive substring match; column names must exist."),
		mcp.WithString(
			"filterColumn",
			mcp.Description("Column to filter on"),
		),
		mcp.WithString(
			"filterValue",
			mcp.Description("Text the filter column must contain"),
		),
		mcp.WithString(
			"sortColumn",
			mcp.Description("Column to sort by"),
		),
		mcp.WithString(
			"sortDirection",
			mcp.Enum(query.Asc, query.Desc),
			mcp.Description("Sort direction (default: asc)"),
		),
		mcp.WithNumber(
			"limit",
			mcp.Description("Maximum rows to return; must be a positive integer"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	)

	s.mcp.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ds, err := s.deps.Store.Get()
		if err != nil {
			return s.domainError("query_data", err)
		}
		limit, err := getOptionalInt(req, "limit")
		if err != nil {
			return s.domainError("query_data", err)
		}
		q := query.Request{
			FilterColumn:  strings.TrimSpace(getOptionalString(req, "filterColumn")),
			FilterValue:   getOptionalString(req, "filterValue"),
			SortColumn:    strings.TrimSpace(getOptionalString(req, "sortColumn")),
			SortDirection: getOptionalString(req, "sortDirection"),
			Limit:         limit,
		}
		res, err := query.Run(ds, q)
		if err != nil {
			return s.domainError("query_data", err)
		}
		s.setView(viewQuery, res.Headers)
		return jsonResult(res)
	})
}

func registerInsightTool(s *Server) {
	tool := mcp.NewTool(
		"generate_insight",
		mcp.WithDescription("Summarize the current dataset. Unknown analysis types fall back to summary."),
		mcp.WithString(
			"analysisType",
			mcp.Enum(insight.Types...),
			mcp.Description("summary, top_performers, trends or recommendations (default: summary)"),
		),
		mcp.WithString(
			"column",
			mcp.Description("Numeric column to rank by for top_performers (default: first numeric column)"),
		),
		mcp.WithNumber(
			"limit",
			mcp.Description("How many top performers to return (default: 5)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	)

	s.mcp.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ds, err := s.deps.Store.Get()
		if err != nil {
			return s.domainError("generate_insight", err)
		}
		limit, err := getOptionalInt(req, "limit")
		if err != nil {
			return s.domainError("generate_insight", err)
		}
		opt := insight.Options{Column: strings.TrimSpace(getOptionalString(req, "column"))}
		if limit != nil {
			if *limit <= 0 {
				return NewErrorResult(apperrors.CodeInvalidArgument, "limit must be a positive integer"), nil
			}
			opt.Limit = *limit
		}
		in, err := insight.Generate(ds, getOptionalString(req, "analysisType"), opt)
		if err != nil {
			return s.domainError("generate_insight", err)
		}
		s.setView(viewInsight, ds.Columns)
		return jsonResult(in)
	})
}

func registerSuggestTool(s *Server) {
	tool := mcp.NewTool(
		"suggest_queries",
		mcp.WithDescription("Describe the current dataset and propose follow-up questions."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	)

	s.mcp.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ds, err := s.deps.Store.Get()
		if err != nil {
			return s.domainError("suggest_queries", err)
		}
		res, err := suggest.Generate(ds)
		if err != nil {
			return s.domainError("suggest_queries", err)
		}
		return jsonResult(res)
	})
}
