// cmd.go - Haupt-CLI Setup und Root Command
// Hauptfunktionen: NewCLI, appendEnvDocs
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vaeflow/vaeflow/envconfig"
	"github.com/vaeflow/vaeflow/logutil"
)

// appendEnvDocs - Fuegt Umgebungsvariablen-Dokumentation zum Command hinzu
func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}

	envUsage := `
Environment Variables:
`
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-24s   %s\n", e.Name, e.Description)
	}

	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

// NewCLI - Erstellt das Haupt-CLI mit allen Commands
func NewCLI() *cobra.Command {
	slog.SetDefault(logutil.NewLogger(os.Stderr, envconfig.LogLevel()))
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "vaeflow",
		Short:         "Generative autoencoder runner",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Print(cmd.UsageString())
		},
	}

	// Commands erstellen
	trainCmd := newTrainCmd()
	encodeCmd := newEncodeCmd()
	encodeDecodeCmd := newEncodeDecodeCmd()
	sampleCmd := newSampleCmd()
	interpolateCmd := newInterpolateCmd()
	runsCmd := newRunsCmd()

	// Environment-Dokumentation hinzufuegen
	envVars := envconfig.AsMap()
	for _, cmd := range []*cobra.Command{
		trainCmd,
		encodeCmd,
		encodeDecodeCmd,
		sampleCmd,
		interpolateCmd,
	} {
		switch cmd {
		case trainCmd:
			appendEnvDocs(cmd, []envconfig.EnvVar{
				envVars["VAEFLOW_DEBUG"],
				envVars["VAEFLOW_MONITOR_HOST"],
				envVars["VAEFLOW_RUNS_DB"],
				envVars["VAEFLOW_SEED"],
			})
		default:
			appendEnvDocs(cmd, []envconfig.EnvVar{
				envVars["VAEFLOW_DEBUG"],
				envVars["VAEFLOW_RUNS_DB"],
				envVars["VAEFLOW_SEED"],
			})
		}
	}
	appendEnvDocs(runsCmd, []envconfig.EnvVar{envVars["VAEFLOW_RUNS_DB"]})

	rootCmd.AddCommand(
		trainCmd,
		encodeCmd,
		encodeDecodeCmd,
		sampleCmd,
		interpolateCmd,
		runsCmd,
	)

	return rootCmd
}
