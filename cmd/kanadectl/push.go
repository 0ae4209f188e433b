package main

import (
	"fmt"

	"github.com/callummance/kanade/bot"
	"github.com/callummance/kanade/discord"
	"github.com/spf13/cobra"
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Replace the registered commands with the bot's current command set",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmds, err := bot.LoadCommandDefinitions()
		if err != nil {
			return fmt.Errorf("load commands: %w", err)
		}
		res, err := discord.PublishCommands(session, cfg.ApplicationID, guildID, cmds)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registered %d commands %s\n", len(res), describeTarget())
		return nil
	},
}
