package commands

import (
	"github.com/spf13/cobra"
)

// NewTablesCommand creates the tables command.
func NewTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables of the configured schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			model, err := cmdCtx.LoadModel(cmd)
			if err != nil {
				return err
			}

			listing := make(map[string][]string)
			for _, t := range model.Tables() {
				cols := make([]string, len(t.Columns))
				for i, c := range t.Columns {
					cols[i] = c.Name + " " + c.Type.String()
				}
				listing[t.Name] = cols
			}
			cmdCtx.Renderer.Tables(listing)
			return nil
		},
	}
}
