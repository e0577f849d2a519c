package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/githarvest/githarvest/internal/sink"
)

// backendDescriptions maps backend names to their one-line summaries.
var backendDescriptions = map[string]string{
	"file":   "JSON lines or YAML documents in a local file, optional lz4 compression",
	"redis":  "JSON values keyed by commit hash plus a delivery-order list",
	"badger": "embedded key-value store, in-memory when no directory is given",
}

// NewSinksCommand creates the sinks command, listing registered backends.
func NewSinksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sinks",
		Short: "List available sink backends",
		Run: func(cmd *cobra.Command, _ []string) {
			tbl := table.NewWriter()
			tbl.SetOutputMirror(cmd.OutOrStdout())
			tbl.SetStyle(table.StyleLight)
			tbl.AppendHeader(table.Row{"Backend", "Description"})

			for _, name := range sink.Backends() {
				tbl.AppendRow(table.Row{name, backendDescriptions[name]})
			}

			tbl.Render()
		},
	}
}
