// Command roleguard evaluates token-gated access roles against user
// identity batches: it loads a role definition and a user batch from YAML,
// dispatches each requirement to its plugin, folds the results through the
// role's boolean logic, and reports who gets in.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	version = "dev" // set by build flags
)

var rootCmd = &cobra.Command{
	Use:   "roleguard",
	Short: "Token-gated access role evaluator",
	Long: `roleguard evaluates declarative role definitions against batches of
user identities, dispatching each requirement to a loadable plugin and
combining the results through the role's boolean logic.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./roleguard.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(pluginCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
