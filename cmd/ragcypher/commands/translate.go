package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/54b3r/ragcypher-go/internal/graph"
	"github.com/54b3r/ragcypher-go/internal/logging"
	"github.com/54b3r/ragcypher-go/internal/store"
	"github.com/54b3r/ragcypher-go/internal/tracing"
	"github.com/54b3r/ragcypher-go/internal/translator"
)

// NewTranslateCmd constructs the `ragcypher translate` command, which
// translates one question into Cypher and optionally runs it.
func NewTranslateCmd() *cobra.Command {
	var execute bool
	var index string

	cmd := &cobra.Command{
		Use:   "translate [text]",
		Short: "Translate a 🤖-prefixed question into Cypher",
		Long: `Translate a natural language question into a Cypher statement.

Only text starting with "🤖, " is translated. Any other text is printed
unchanged, which lets plain Cypher flow through the same command.

With --execute the resulting statement is run against Neo4j and each
record is printed as one JSON object per line.

Examples:
  ragcypher translate "🤖, how many movies did Tom Hanks act in?"
  ragcypher translate --index movie-docs --execute "🤖, list all genres"
  ragcypher translate --execute "MATCH (n) RETURN count(n)"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			flush, _ := tracing.Install()
			defer flush()

			input := strings.Join(args, " ")
			if strings.TrimSpace(input) == "" {
				return errNoQuery
			}

			// Pass-through input never touches a model service, so it needs
			// no translator configuration.
			cypher := input
			be := &backends{}
			defer func() { be.close() }()
			if _, addressed := translator.Gate(input); addressed {
				tr, cfg, _, err := buildTranslator(ctx, log, index)
				if err != nil {
					return fmt.Errorf("translate: %w", err)
				}
				built, err := buildBackends(ctx, log)
				if err != nil {
					return fmt.Errorf("translate: %w", err)
				}
				be = built
				if cypher, err = tr.Translate(ctx, input, be.searcher); err != nil {
					return fmt.Errorf("translate: %w", err)
				}
				recordHistory(cmd, log, store.Translation{Input: input, Cypher: cypher, IndexName: cfg.IndexName})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cypher)

			if !execute {
				return nil
			}
			driver, err := be.neo4jDriver(ctx)
			if err != nil {
				return fmt.Errorf("translate: %w", err)
			}
			rows, err := graph.NewExecutor(driver, graph.Neo4jConfigFromEnv().Database).Execute(ctx, cypher)
			if err != nil {
				return fmt.Errorf("translate: %w", err)
			}
			return printRows(out, rows)
		},
	}

	cmd.Flags().BoolVarP(&execute, "execute", "x", false, "Run the resulting Cypher against Neo4j and print the records")
	cmd.Flags().StringVar(&index, "index", "", "Vector index to search (overrides RAG_INDEX_NAME)")

	return cmd
}

// recordHistory appends t to the history store. Failures never fail the
// command.
func recordHistory(cmd *cobra.Command, log *slog.Logger, t store.Translation) {
	hs, closeHistory := openHistory(log)
	defer closeHistory()
	if hs == nil {
		return
	}
	if err := hs.Append(cmd.Context(), t); err != nil {
		log.Warn("history: append failed", slog.Any("error", err))
	}
}

// printRows writes each row as a JSON object keyed by column name.
func printRows(w io.Writer, rows []graph.Row) error {
	enc := json.NewEncoder(w)
	for _, r := range rows {
		if err := enc.Encode(r.Values); err != nil {
			return fmt.Errorf("translate: encode record: %w", err)
		}
	}
	return nil
}
