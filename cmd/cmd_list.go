// cmd_list.go - Auflistung der Run-Historie
// Hauptfunktionen: RunsHandler
package cmd

import (
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/vaeflow/vaeflow/envconfig"
	"github.com/vaeflow/vaeflow/store"
)

// RunsHandler - Listet die Run-Historie auf, neueste zuerst
func RunsHandler(cmd *cobra.Command, args []string) error {
	runs := &store.Store{DBPath: envconfig.RunsDBPath()}
	defer runs.Close()

	all, err := runs.Runs()
	if err != nil {
		return err
	}

	var data [][]string
	for _, r := range all {
		status := "running"
		if !r.FinishedAt.IsZero() {
			status = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		data = append(data, []string{
			r.ID[:8],
			r.Mode,
			r.OutputDir,
			strconv.Itoa(r.Batches),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			status,
		})
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "MODE", "OUTPUT", "BATCHES", "STARTED", "DURATION"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
	return nil
}
