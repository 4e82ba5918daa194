// Package cli wires the cobra command tree. Commands load configuration
// through internal/config and hand explicit values to the mirror engine;
// nothing below this package touches viper or prompts the operator.
package cli

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/acksell/localmirror/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "localmirror",
	Short: "Mirror AWS resources into a local emulator",
	Long: `localmirror clones resources from a live AWS account into a locally
running, API-compatible emulator: S3 buckets, Lambda functions, SQS
queues, DynamoDB tables (schema and data), Cognito user pools and RDS
instances.

Every create is idempotent; re-running a migration never duplicates
resources in the target.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.Init()
	},
}

// Execute runs the command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("✗ %v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(versionCmd)
}
