// Package commands defines all Cobra CLI commands for the ragcypher binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/54b3r/ragcypher-go/internal/audit"
	"github.com/54b3r/ragcypher-go/internal/config"
	"github.com/54b3r/ragcypher-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ragcypher",
		Short: "Translate natural language questions into Cypher",
		Long: `ragcypher turns questions prefixed with "🤖, " into Cypher statements.

The question is embedded, the closest documents are fetched from a vector
index (Neo4j or Qdrant) and a chat model writes the statement using only
those documents. Input without the prefix is passed through unchanged, so
plain Cypher keeps working.

Model provider is selected via the MODEL_PROVIDER environment variable
or a YAML config file (~/.ragcypher/config.yaml).
See 'ragcypher --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			audit.LogCommandStart(cmd.Context(), log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.ragcypher/config.yaml)")

	root.AddCommand(
		NewTranslateCmd(),
		NewServeCmd(),
		NewHistoryCmd(),
		NewVersionCmd(),
	)

	return root
}
