// Package output renders check results for the terminal or as JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/squint/pkg/typecheck"
)

// Mode selects the output format.
type Mode string

// Output modes.
const (
	ModeText Mode = "text"
	ModeJSON Mode = "json"
)

// Renderer writes check results.
type Renderer struct {
	out  io.Writer
	errW io.Writer
	mode Mode
}

// NewRenderer creates a renderer. An unknown mode falls back to text.
func NewRenderer(out, errW io.Writer, mode Mode) *Renderer {
	if mode != ModeJSON {
		mode = ModeText
	}
	return &Renderer{out: out, errW: errW, mode: mode}
}

// CheckResult is one checked statement, for JSON output.
type CheckResult struct {
	Source     string         `json:"source"`
	Columns    []ColumnResult `json:"columns,omitempty"`
	References []string       `json:"references,omitempty"`
	Writes     []string       `json:"writes,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// ColumnResult is one inferred result column, for JSON output.
type ColumnResult struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	FromAlias  string `json:"from,omitempty"`
	PrimaryKey bool   `json:"primary_key,omitempty"`
}

// Query renders the inferred type of one checked statement.
func (r *Renderer) Query(source string, cols []typecheck.ColumnDescription, refs, writes []string) {
	if r.mode == ModeJSON {
		res := CheckResult{Source: source, References: refs, Writes: writes}
		for _, c := range cols {
			res.Columns = append(res.Columns, ColumnResult{
				Name:       c.Name,
				Type:       c.Type.String(),
				FromAlias:  c.FromAlias,
				PrimaryKey: c.PrimaryKey,
			})
		}
		r.writeJSON(res)
		return
	}

	fmt.Fprintf(r.out, "%s: ok\n", source)
	if len(cols) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(r.out)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"#", "Column", "Type", "From", "PK"})
		for i, c := range cols {
			pk := ""
			if c.PrimaryKey {
				pk = "*"
			}
			t.AppendRow(table.Row{i + 1, c.Name, c.Type.String(), c.FromAlias, pk})
		}
		t.Render()
	}
	if len(refs) > 0 {
		fmt.Fprintf(r.out, "reads: %s\n", join(refs))
	}
	if len(writes) > 0 {
		fmt.Fprintf(r.out, "writes: %s\n", join(writes))
	}
}

// Error renders a failed statement check.
func (r *Renderer) Error(source string, err error) {
	if r.mode == ModeJSON {
		r.writeJSON(CheckResult{Source: source, Error: err.Error()})
		return
	}
	fmt.Fprintf(r.errW, "%s: %s\n", source, err)
}

// Tables renders the schema catalog listing.
func (r *Renderer) Tables(tables map[string][]string) {
	if r.mode == ModeJSON {
		r.writeJSON(tables)
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Table", "Columns"})
	for name, cols := range tables {
		t.AppendRow(table.Row{name, join(cols)})
	}
	t.SortBy([]table.SortBy{{Name: "Table", Mode: table.Asc}})
	t.Render()
}

func (r *Renderer) writeJSON(v any) {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func join(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
