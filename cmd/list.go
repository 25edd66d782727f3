package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zdavis/folio/internal/infrastructure/sqlite"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Long:  `List the documents in the database, most recently updated first.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := sqlite.NewDB(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("opening document database: %w", err)
	}
	defer func() { _ = db.Close() }()

	docs, err := db.Documents().List()
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	if len(docs) == 0 {
		fmt.Println("no documents")
		return nil
	}

	for _, doc := range docs {
		lastSeq, err := db.Ops().LastSeq(doc.GUID())
		if err != nil {
			return fmt.Errorf("reading op log for %s: %w", doc.GUID(), err)
		}
		fmt.Printf("%-30s  %s  rev %-4d ops %-5d %s\n",
			doc.Title(),
			doc.GUID(),
			doc.Revision(),
			lastSeq,
			doc.UpdatedAt().Format("2006-01-02 15:04"))
	}
	return nil
}
