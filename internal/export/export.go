// Package export writes query results to disk in a format chosen by the
// output file's extension.
package export

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/tabula-cli/internal/query"
	"github.com/KaramelBytes/tabula-cli/internal/utils"

	_ "modernc.org/sqlite"
)

// TableName is the SQLite table results are written to.
const TableName = "query_result"

// Formats lists the supported output extensions.
var Formats = []string{".csv", ".json", ".db", ".sqlite"}

// Write stores res at path. The directory must exist.
func Write(ctx context.Context, path string, res *query.Result) error {
	if res == nil {
		return fmt.Errorf("export: nothing to write")
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return writeCSV(path, res)
	case ".json":
		return writeJSON(path, res)
	case ".db", ".sqlite":
		return writeSQLite(ctx, path, res)
	default:
		return fmt.Errorf("unsupported export format %q (use one of %s)", ext, strings.Join(Formats, ", "))
	}
}

func writeCSV(path string, res *query.Result) error {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(res.Headers); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := w.WriteAll(res.Rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return utils.SafeWriteFile(path, []byte(sb.String()))
}

type jsonResult struct {
	Headers   []string            `json:"headers"`
	Rows      []map[string]string `json:"rows"`
	TotalRows int                 `json:"totalRows"`
	Summary   []query.Stat        `json:"summary"`
}

func writeJSON(path string, res *query.Result) error {
	out := jsonResult{Headers: res.Headers, TotalRows: res.TotalRows, Summary: res.Summary}
	out.Rows = make([]map[string]string, 0, len(res.Rows))
	for _, r := range res.Rows {
		m := make(map[string]string, len(res.Headers))
		for i, h := range res.Headers {
			if i < len(r) {
				m[h] = r[i]
			}
		}
		out.Rows = append(out.Rows, m)
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return utils.SafeWriteFile(path, b)
}

// writeSQLite replaces any existing query_result table. Every column is TEXT
// because result cells are already formatted for display.
func writeSQLite(ctx context.Context, path string, res *query.Result) (err error) {
	if len(res.Headers) == 0 {
		return fmt.Errorf("export: result has no columns")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}

	cols := make([]string, len(res.Headers))
	marks := make([]string, len(res.Headers))
	for i, h := range res.Headers {
		cols[i] = quoteIdent(h) + " TEXT"
		marks[i] = "?"
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(TableName)); err != nil {
		return fmt.Errorf("drop table: %w", err)
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(TableName), strings.Join(cols, ", "))
	if _, err = tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(TableName), strings.Join(marks, ", ")))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(res.Headers))
	for n, r := range res.Rows {
		for i := range args {
			args[i] = nil
			if i < len(r) && r[i] != "" {
				args[i] = r[i]
			}
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert row %d: %w", n+1, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
