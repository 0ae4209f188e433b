package main

import (
	"errors"
	"fmt"

	"github.com/callummance/kanade/discord"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove every registered command",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		removed, err := discord.DeleteCommands(session, cfg.ApplicationID, guildID)
		if errors.Is(err, discord.ErrNoCommands) {
			fmt.Fprintf(cmd.OutOrStdout(), "No commands are registered %s\n", describeTarget())
			return nil
		} else if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d commands %s\n", removed, describeTarget())
		return nil
	},
}
