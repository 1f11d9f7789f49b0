package cmd

import (
	"errors"
	"fmt"

	"notesapi/log"
	"notesapi/repository"
	"notesapi/services"

	"github.com/spf13/cobra"
)

var revokeCmd = &cobra.Command{
	Use:   "revoke <token>",
	Short: "Reject a bearer token until it expires",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Redis.URL == "" {
			return errors.New("revoke: REDIS_URL is not set")
		}

		client, err := repository.NewRedisClient(cmd.Context(), cfg.Redis.URL)
		if err != nil {
			return err
		}
		revocations := services.NewTokenRevocationList(client)
		defer revocations.Close()

		expiresAt, err := services.TokenExpiry(args[0])
		if err != nil {
			return fmt.Errorf("revoke: %w", err)
		}
		if err := revocations.Revoke(cmd.Context(), args[0], expiresAt); err != nil {
			return err
		}
		log.Logger().Noticef(nil, "token revoked until %s", expiresAt.UTC().Format("2006-01-02T15:04:05Z"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(revokeCmd)
}
