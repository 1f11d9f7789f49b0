package cmd

import (
	"fmt"

	"notesapi/log"
	"notesapi/repository"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the notes schema and indexes, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := repository.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		defer store.Close()

		if err := store.Ping(cmd.Context()); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Logger().Noticef(nil, "schema ready for %s store", cfg.Store.Driver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
