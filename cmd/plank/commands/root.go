package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string

	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "plank",
	Short: "Plank - board view for work-tracking services",
	Long: `Plank resolves which team Kanban board a work item belongs to and lets
you read and edit its board placement from the terminal: column, swimlane,
done split, and position within the column.

Plank is a client of an Azure-DevOps-style work-tracking REST API. Point it
at your service with plank.yml and a PLANK_TOKEN access token.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "plank.yml", "Path to the plank configuration file")
}
