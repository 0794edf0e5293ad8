package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/set-night/leadbot/internal/repository"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Open the store, apply migrations and report its health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := storeLocation(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if repository.IsPostgresURL(loc) {
				store, err := repository.OpenPostgres(cmd.Context(), loc)
				if err != nil {
					return err
				}
				defer store.Close()
				_, err = fmt.Fprintln(out, "postgres: ok")
				return err
			}

			store, err := repository.OpenSQLite(cmd.Context(), loc)
			if err != nil {
				return err
			}
			defer store.Close()

			if store.Rebuilt() {
				_, err = fmt.Fprintf(out, "sqlite %s: corrupt file discarded, schema recreated\n", store.Path())
				return err
			}
			_, err = fmt.Fprintf(out, "sqlite %s: ok\n", store.Path())
			return err
		},
	}
}
