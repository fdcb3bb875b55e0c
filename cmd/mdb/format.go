package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/zulandar/multidb/internal/instance"
	"github.com/zulandar/multidb/internal/result"
)

// renderTable writes header and rows as a boxed table.
func renderTable(out io.Writer, header []string, rows [][]string) error {
	data := pterm.TableData{header}
	data = append(data, rows...)
	s, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	fmt.Fprintln(out, s)
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func instanceRows(list []instance.Response) [][]string {
	rows := make([][]string, 0, len(list))
	for _, r := range list {
		created := r.CreatedAt
		rows = append(rows, []string{
			strconv.FormatUint(uint64(r.ID), 10),
			r.Name,
			string(r.EngineType),
			string(r.Status),
			r.DatabaseName,
			r.UserName,
			formatTime(&created),
			formatTime(r.LastAccessedAt),
		})
	}
	return rows
}

var instanceHeader = []string{"ID", "NAME", "ENGINE", "STATUS", "DATABASE", "OWNER", "CREATED", "LAST ACCESS"}

// resultRows flattens a read result into table cells, one column per result
// column. Nested values are shown as JSON.
func resultRows(res *result.QueryResult) ([]string, [][]string) {
	cols := res.Columns
	if len(cols) == 0 && len(res.Rows) > 0 {
		for k := range res.Rows[0] {
			cols = append(cols, k)
		}
		sort.Strings(cols)
	}
	rows := make([][]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = formatValue(row[c])
		}
		rows = append(rows, cells)
	}
	return cols, rows
}

func formatValue(v result.Value) string {
	switch v.Kind() {
	case result.KindNull:
		return "NULL"
	case result.KindString:
		return v.AsString()
	case result.KindList, result.KindMap:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v.Interface())
		}
		return string(b)
	default:
		return fmt.Sprint(v.Interface())
	}
}
