package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/54b3r/ragcypher-go/internal/logging"
	"github.com/54b3r/ragcypher-go/internal/store"
)

// NewHistoryCmd constructs the `ragcypher history` command, which lists the
// most recent successful translations.
func NewHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent translations",
		Long: `List the most recent successful translations, oldest first.

History is stored in SQLite at ~/.ragcypher/history.db unless
RAGCYPHER_HISTORY_DB points elsewhere or is set to "disabled".

Examples:
  ragcypher history
  ragcypher history --limit 5`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return fmt.Errorf("history: --limit must be positive, got %d", limit)
			}
			hs, closeHistory := openHistory(logging.New())
			defer closeHistory()
			if hs == nil {
				return fmt.Errorf("history: store unavailable")
			}

			records, err := hs.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("history: %w", err)
			}
			printHistory(cmd.OutOrStdout(), records)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of translations to show")

	return cmd
}

// printHistory writes one block per translation.
func printHistory(w io.Writer, records []store.Translation) {
	if len(records) == 0 {
		fmt.Fprintln(w, "no translations recorded")
		return
	}
	for _, r := range records {
		fmt.Fprintf(w, "%s  [%s]  %s\n  %s\n",
			r.CreatedAt.Local().Format(time.DateTime), r.IndexName, r.Input, r.Cypher)
	}
}
