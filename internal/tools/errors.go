package tools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/KaramelBytes/tabula-cli/internal/apperrors"
)

// ErrorResponse is the body of a structured error result.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorResult creates a tool result carrying a structured error the client
// can act on (bad column, nothing loaded, rejected file).
func NewErrorResult(code, message string) *mcp.CallToolResult {
	jsonBytes, _ := json.Marshal(ErrorResponse{Error: true, Code: code, Message: message})
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// domainError converts a pipeline error into a tool result. Errors outside
// the domain taxonomy are returned as Go errors.
func (s *Server) domainError(tool string, err error) (*mcp.CallToolResult, error) {
	code := apperrors.Code(err)
	if code == apperrors.CodeInternal {
		s.logger.Error("tool failed", zap.String("tool", tool), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", tool, err)
	}
	s.logger.Debug("tool rejected input", zap.String("tool", tool), zap.String("code", code), zap.Error(err))
	return NewErrorResult(code, err.Error()), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

func getOptionalString(req mcp.CallToolRequest, key string) string {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return ""
	}
	val, _ := args[key].(string)
	return val
}

// getOptionalInt accepts whole JSON numbers only. An absent or null key is
// nil; any other non-number is invalid.
func getOptionalInt(req mcp.CallToolRequest, key string) (*int, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	raw, present := args[key]
	if !present || raw == nil {
		return nil, nil
	}
	f, ok := raw.(float64)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a number, got %T", apperrors.ErrInvalidArgument, key, raw)
	}
	if f != float64(int(f)) {
		return nil, fmt.Errorf("%w: %s must be a whole number, got %v", apperrors.ErrInvalidArgument, key, f)
	}
	n := int(f)
	return &n, nil
}
