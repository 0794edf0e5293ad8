package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/set-night/leadbot/internal/config"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "transcript",
		Short:        "Inspect the lead bot transcript store",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("store", "", "Store location, SQLite path or postgres URL (default: STORE_LOCATION).")

	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newCheckCmd())

	return cmd
}

// storeLocation prefers --store and falls back to the bot's environment.
func storeLocation(cmd *cobra.Command) (string, error) {
	if loc, _ := cmd.Flags().GetString("store"); strings.TrimSpace(loc) != "" {
		return strings.TrimSpace(loc), nil
	}
	cfg, err := config.LoadStore()
	if err != nil {
		return "", err
	}
	return cfg.StoreLocation, nil
}
