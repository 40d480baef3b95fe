// Command ragcypher translates "🤖, "-prefixed natural language questions
// into Cypher using retrieval-augmented generation. It provides a CLI
// interface (via Cobra) and an optional HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/54b3r/ragcypher-go/cmd/ragcypher/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
