package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zdavis/folio/internal/infrastructure/sqlite"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <guid>",
	Short: "Delete a document",
	Long:  `Soft-delete a document by GUID. The op log is retained.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	db, err := sqlite.NewDB(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("opening document database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Documents().Delete(args[0]); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	fmt.Printf("deleted %s\n", args[0])
	return nil
}
