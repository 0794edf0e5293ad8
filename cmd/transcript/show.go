package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/set-night/leadbot/internal/domain"
	"github.com/set-night/leadbot/internal/repository"
	"github.com/set-night/leadbot/internal/service"
)

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <conversation-id>",
		Short: "Print the transcript of one conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid conversation id %q: %w", args[0], err)
			}
			format, _ := cmd.Flags().GetString("format")
			if format != "text" && format != "yaml" {
				return fmt.Errorf("unknown format %q (want text or yaml)", format)
			}

			loc, err := storeLocation(cmd)
			if err != nil {
				return err
			}
			store, err := repository.Open(cmd.Context(), loc)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.HistoryFor(cmd.Context(), domain.ConversationID(id))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "yaml" {
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(entries); err != nil {
					return fmt.Errorf("encode yaml: %w", err)
				}
				return enc.Close()
			}
			_, err = fmt.Fprint(out, service.FormatTranscript(entries))
			return err
		},
	}

	cmd.Flags().String("format", "text", "Output format: text|yaml.")
	return cmd
}
