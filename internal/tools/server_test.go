package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tabula-cli/internal/datasource"
	"github.com/KaramelBytes/tabula-cli/internal/ingest"
)

type toolResponse struct {
	Result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	pop := datasource.NewPopulation("WLD", 200*time.Millisecond, nil)
	pop.BaseURL = "http://127.0.0.1:1"
	s := NewServer("tabula-test", "0.0.0", Deps{Ingest: ingest.DefaultOptions(), Population: pop})
	t.Cleanup(s.Close)
	return s
}

// callTool invokes name with args and decodes the text content into out.
// It reports whether the result was flagged as an error.
func callTool(t *testing.T, s *Server, name string, args map[string]any, out any) bool {
	t.Helper()
	msg, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": name, "arguments": args},
	})
	require.NoError(t, err)

	raw, err := json.Marshal(s.MCP().HandleMessage(context.Background(), msg))
	require.NoError(t, err)
	var resp toolResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	require.Nil(t, resp.Error, "protocol error: %s", raw)
	require.NotEmpty(t, resp.Result.Content, "empty result: %s", raw)
	if out != nil {
		require.NoError(t, json.Unmarshal([]byte(resp.Result.Content[0].Text), out))
	}
	return resp.Result.IsError
}

func writeSales(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	data := "Month,Revenue,Region\nJan,100,East\nFeb,150,West\nMar,120,East\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestToolsList(t *testing.T) {
	s := newTestServer(t)
	raw, err := json.Marshal(s.MCP().HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"tools/list","id":1}`)))
	require.NoError(t, err)

	var resp struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &resp))
	var names []string
	for _, tool := range resp.Result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"load_dataset", "load_source", "clear_dataset",
		"classify_dataset", "query_data", "generate_insight", "suggest_queries",
		"detect_refinement",
	}, names)
}

func TestNoDataBeforeLoad(t *testing.T) {
	s := newTestServer(t)
	for _, name := range []string{"classify_dataset", "query_data", "generate_insight", "suggest_queries"} {
		var er ErrorResponse
		isErr := callTool(t, s, name, map[string]any{}, &er)
		assert.True(t, isErr, name)
		assert.Equal(t, "no_data", er.Code, name)
	}
}

func TestLoadQueryAndInsight(t *testing.T) {
	s := newTestServer(t)

	var loaded loadResult
	require.False(t, callTool(t, s, "load_dataset", map[string]any{"path": writeSales(t)}, &loaded))
	assert.Equal(t, 3, loaded.RowCount)
	assert.Equal(t, []string{"Month", "Revenue", "Region"}, loaded.Columns)
	require.NotNil(t, loaded.Suggestions)
	assert.NotEmpty(t, loaded.Suggestions.Suggestions)

	var cls struct {
		Category string `json:"category"`
		View     string `json:"recommendedView"`
	}
	require.False(t, callTool(t, s, "classify_dataset", nil, &cls))
	assert.Equal(t, "time-series", cls.Category)
	assert.Equal(t, "chart", cls.View)

	var res struct {
		Headers   []string   `json:"headers"`
		Rows      [][]string `json:"rows"`
		TotalRows int        `json:"totalRows"`
	}
	require.False(t, callTool(t, s, "query_data", map[string]any{"filterColumn": "Region", "filterValue": "east"}, &res))
	assert.Equal(t, [][]string{{"Jan", "100", "East"}, {"Mar", "120", "East"}}, res.Rows)
	assert.Equal(t, 2, res.TotalRows)

	require.False(t, callTool(t, s, "query_data", map[string]any{"sortColumn": "Revenue", "sortDirection": "desc", "limit": 1}, &res))
	assert.Equal(t, [][]string{{"Feb", "150", "West"}}, res.Rows)

	var in struct {
		Type    string `json:"type"`
		Metrics []struct {
			Label string `json:"label"`
			Value string `json:"value"`
			Class string `json:"class"`
		} `json:"metrics"`
	}
	require.False(t, callTool(t, s, "generate_insight", map[string]any{"analysisType": "trends"}, &in))
	assert.Equal(t, "trends", in.Type)
	require.NotEmpty(t, in.Metrics)
	assert.Equal(t, "+20.0%", in.Metrics[0].Value)
	assert.Equal(t, "positive", in.Metrics[0].Class)
}

func TestDomainErrors(t *testing.T) {
	s := newTestServer(t)
	require.False(t, callTool(t, s, "load_dataset", map[string]any{"path": writeSales(t)}, nil))

	cases := []struct {
		tool string
		args map[string]any
		code string
	}{
		{"query_data", map[string]any{"sortColumn": "Profit"}, "invalid_reference"},
		{"query_data", map[string]any{"sortColumn": "Revenue", "sortDirection": "sideways"}, "invalid_argument"},
		{"query_data", map[string]any{"limit": 0}, "invalid_argument"},
		{"query_data", map[string]any{"limit": 1.5}, "invalid_argument"},
		{"query_data", map[string]any{"limit": "5"}, "invalid_argument"},
		{"query_data", map[string]any{"filterValue": "east"}, "invalid_argument"},
		{"query_data", map[string]any{"filterColumn": "Region"}, "invalid_argument"},
		{"query_data", map[string]any{"sortDirection": "desc"}, "invalid_argument"},
		{"generate_insight", map[string]any{"limit": true}, "invalid_argument"},
		{"generate_insight", map[string]any{"analysisType": "top_performers", "column": "Nope"}, "invalid_reference"},
		{"generate_insight", map[string]any{"limit": -2}, "invalid_argument"},
		{"load_dataset", map[string]any{"path": filepath.Join(t.TempDir(), "data.pdf")}, "malformed_source"},
		{"load_dataset", map[string]any{"path": filepath.Join(t.TempDir(), "missing.csv")}, "malformed_source"},
		{"load_source", map[string]any{"source": "weather"}, "invalid_argument"},
	}
	for _, tc := range cases {
		var er ErrorResponse
		isErr := callTool(t, s, tc.tool, tc.args, &er)
		assert.True(t, isErr, "%s %v", tc.tool, tc.args)
		assert.True(t, er.Error)
		assert.Equal(t, tc.code, er.Code, "%s %v: %s", tc.tool, tc.args, er.Message)
	}

	// A failed load leaves the previous dataset in place.
	var res struct {
		TotalRows int `json:"totalRows"`
	}
	require.False(t, callTool(t, s, "query_data", nil, &res))
	assert.Equal(t, 3, res.TotalRows)
}

func TestLoadSourcePopulationFallsBack(t *testing.T) {
	s := newTestServer(t)
	var loaded loadResult
	require.False(t, callTool(t, s, "load_source", map[string]any{"source": "population"}, &loaded))
	require.NotNil(t, loaded.Live)
	assert.False(t, *loaded.Live)
	assert.Equal(t, datasource.StaleNote, loaded.Note)
	assert.Equal(t, []string{datasource.ColYear, datasource.ColPopulation, datasource.ColGrowth}, loaded.Columns)

	require.False(t, callTool(t, s, "load_source", map[string]any{"source": "stocks"}, &loaded))
	assert.False(t, *loaded.Live)
	assert.NotEmpty(t, loaded.Note)
	assert.Contains(t, loaded.Columns, "Symbol")
}

func TestDetectRefinementFollowsView(t *testing.T) {
	s := newTestServer(t)
	var dec struct {
		Refinement bool `json:"refinement"`
		Request    *struct {
			SortColumn    string `json:"sortColumn"`
			SortDirection string `json:"sortDirection"`
		} `json:"request"`
	}
	msg := map[string]any{"message": "sort it by revenue descending"}

	// Nothing on screen yet.
	require.False(t, callTool(t, s, "detect_refinement", msg, &dec))
	assert.False(t, dec.Refinement)

	require.False(t, callTool(t, s, "load_dataset", map[string]any{"path": writeSales(t)}, nil))
	require.False(t, callTool(t, s, "query_data", nil, nil))
	require.False(t, callTool(t, s, "detect_refinement", msg, &dec))
	assert.True(t, dec.Refinement)
	require.NotNil(t, dec.Request)
	assert.Equal(t, "Revenue", dec.Request.SortColumn)
	assert.Equal(t, "desc", dec.Request.SortDirection)

	// Clearing drops the view.
	require.False(t, callTool(t, s, "clear_dataset", nil, nil))
	dec.Refinement, dec.Request = false, nil
	require.False(t, callTool(t, s, "detect_refinement", msg, &dec))
	assert.False(t, dec.Refinement)
}
