package result

import (
	"encoding/json"
	"fmt"
	"time"
)

// Query type tags reported alongside results.
const (
	TypeSelect       = "SELECT"
	TypeInsert       = "INSERT"
	TypeUpdate       = "UPDATE"
	TypeDelete       = "DELETE"
	TypeCreate       = "CREATE"
	TypeAlter        = "ALTER"
	TypeOther        = "OTHER"
	TypeCommand      = "COMMAND"
	TypeRedisCommand = "REDIS_COMMAND"
)

// Row maps column name to value.
type Row map[string]Value

// QueryResult is the canonical outcome of one dispatched statement.
// Columns and Rows are set for reads; AffectedRows for writes.
type QueryResult struct {
	Success       bool
	Columns       []string
	Rows          []Row
	AffectedRows  *int64
	ExecutionTime time.Duration
	ErrorMessage  string
	QueryType     string
}

// Failure builds an unsuccessful result carrying msg.
func Failure(msg string) *QueryResult {
	return &QueryResult{Success: false, ErrorMessage: msg}
}

// Read builds a successful read result. Nil columns or rows become empty
// slices so a read always reports a (possibly empty) row set.
func Read(queryType string, columns []string, rows []Row) *QueryResult {
	if columns == nil {
		columns = []string{}
	}
	if rows == nil {
		rows = []Row{}
	}
	return &QueryResult{Success: true, Columns: columns, Rows: rows, QueryType: queryType}
}

// Write builds a successful write result.
func Write(queryType string, affected int64) *QueryResult {
	return &QueryResult{Success: true, AffectedRows: &affected, QueryType: queryType}
}

// FormatDuration renders d as seconds with millisecond precision, e.g. "0.012s".
func FormatDuration(d time.Duration) string {
	return fmt.Sprintf("%.3fs", d.Seconds())
}

type wireResult struct {
	Success       bool      `json:"success"`
	Columns       *[]string `json:"columns,omitempty"`
	Rows          *[]Row    `json:"rows,omitempty"`
	AffectedRows  *int64    `json:"affectedRows,omitempty"`
	ExecutionTime string    `json:"executionTime"`
	ErrorMessage  string    `json:"errorMessage,omitempty"`
	QueryType     string    `json:"queryType"`
}

// MarshalJSON emits {success, columns?, rows?, affectedRows?, executionTime,
// errorMessage?, queryType}. A read with no rows still emits "rows": [].
func (r QueryResult) MarshalJSON() ([]byte, error) {
	w := wireResult{
		Success:       r.Success,
		AffectedRows:  r.AffectedRows,
		ExecutionTime: FormatDuration(r.ExecutionTime),
		ErrorMessage:  r.ErrorMessage,
		QueryType:     r.QueryType,
	}
	if r.Columns != nil {
		w.Columns = &r.Columns
	}
	if r.Rows != nil {
		w.Rows = &r.Rows
	}
	return json.Marshal(w)
}
