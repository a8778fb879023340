package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/KaramelBytes/tabula-cli/internal/apperrors"
)

func registerRefineTool(s *Server) {
	tool := mcp.NewTool(
		"detect_refinement",
		mcp.WithDescription("Score whether a user message refines the result last shown (sort it, only the top 3) or starts a new request. When it refines a query, a ready-made query_data request is included."),
		mcp.WithString(
			"message",
			mcp.Required(),
			mcp.Description("The user's latest message"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.mcp.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		msg, err := req.RequireString("message")
		if err != nil {
			return NewErrorResult(apperrors.CodeInvalidArgument, err.Error()), nil
		}
		return jsonResult(s.deps.Detector.Detect(msg, s.view.Load()))
	})
}
