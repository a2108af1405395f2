// Package cli defines the cobra command tree for safety-report.
package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/safety-report/internal/client"
	"github.com/evcraddock/safety-report/internal/db"
)

var (
	flagFormat string
	flagDB     string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sr",
		Short:         "Safety reports for short-term-rental listings",
		Long:          "Score listings for resident-facing safety, classify guest and social snippets, summarize takeaways, and rank safer alternatives.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: $SR_DB or ~/.safety-report/safety.db)")

	root.AddCommand(
		newServeCmd(),
		newImportCmd(),
		newScoreCmd(),
		newClassifyCmd(),
		newTakeawayCmd(),
		newAlternativesCmd(),
		newReportCmd(),
		newSnippetCmd(),
		newStatusCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)

	return root
}

// openDB opens the SQLite database from the --db flag, fallback, or the
// default path.
func openDB(fallback string) (*sql.DB, error) {
	path := flagDB
	if path == "" {
		path = fallback
	}
	if path == "" {
		var err error
		path, err = db.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return db.Open(path)
}

// newAPIClient creates an HTTP client for the safety report API.
func newAPIClient() *client.Client {
	return client.New(getServerURL())
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}
