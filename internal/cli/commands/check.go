package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/leapstack-labs/squint/pkg/parser"
	"github.com/leapstack-labs/squint/pkg/schema"
	"github.com/leapstack-labs/squint/pkg/typecheck"
	"github.com/spf13/cobra"
)

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	var inline string

	cmd := &cobra.Command{
		Use:   "check [files...]",
		Short: "Type-check SQL statements against the schema",
		Long: `Parse and type-check SQL statements.

Each statement is checked against the configured schema database and the
inferred result columns are printed, or the first error with its source
position.`,
		Example: `  # Check one or more files
  squint check queries/report.sql

  # Check an inline statement
  squint check --sql "SELECT id, name FROM users"

  # Machine-readable output
  squint check --output json queries/report.sql`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && inline == "" {
				return fmt.Errorf("nothing to check; pass files or --sql")
			}
			return runCheck(cmd, args, inline)
		},
	}

	cmd.Flags().StringVar(&inline, "sql", "", "Check an inline SQL statement")
	return cmd
}

func runCheck(cmd *cobra.Command, files []string, inline string) error {
	cmdCtx := NewCommandContext(cmd)
	model, err := cmdCtx.LoadModel(cmd)
	if err != nil {
		return err
	}

	checker := typecheck.NewChecker(model)
	failed := 0

	check := func(source, sql string) {
		for _, stmtSQL := range SplitStatements(sql) {
			stmt, err := parser.Parse(stmtSQL)
			if err != nil {
				cmdCtx.Renderer.Error(source, err)
				failed++
				continue
			}
			q, err := checker.CheckStatement(stmt)
			if err != nil {
				cmdCtx.Renderer.Error(source, err)
				failed++
				continue
			}
			cmdCtx.Renderer.Query(source, checker.Describe(q),
				tableNames(checker.References()), tableNames(checker.Writes()))
		}
	}

	if inline != "" {
		check("<sql>", inline)
	}
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		check(path, string(data))
	}

	if failed > 0 {
		return fmt.Errorf("%d statement(s) failed", failed)
	}
	return nil
}

func tableNames(tables []*schema.Table) []string {
	out := make([]string, len(tables))
	for i, t := range tables {
		out[i] = t.Name
	}
	return out
}

// SplitStatements splits a script into statements on semicolons, skipping
// semicolons inside string literals, quoted identifiers, and comments.
func SplitStatements(src string) []string {
	var out []string
	var cur strings.Builder

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}

	for i := 0; i < len(src); i++ {
		ch := src[i]
		switch ch {
		case ';':
			flush()
			continue
		case '\'', '"', '`':
			quote := ch
			cur.WriteByte(ch)
			for i++; i < len(src); i++ {
				cur.WriteByte(src[i])
				if src[i] == quote {
					break
				}
			}
			continue
		case '-':
			if i+1 < len(src) && src[i+1] == '-' {
				for ; i < len(src) && src[i] != '\n'; i++ {
				}
				cur.WriteByte('\n')
				continue
			}
		case '/':
			if i+1 < len(src) && src[i+1] == '*' {
				for i += 2; i+1 < len(src); i++ {
					if src[i] == '*' && src[i+1] == '/' {
						i++
						break
					}
				}
				cur.WriteByte(' ')
				continue
			}
		}
		cur.WriteByte(ch)
	}
	flush()
	return out
}
