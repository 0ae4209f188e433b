// Package main provides kanadectl, which manages the application commands
// registered for the bot without starting it.
package main

import (
	"fmt"
	"os"

	"github.com/bwmarrin/discordgo"
	"github.com/callummance/kanade/config"
	"github.com/callummance/kanade/discord"
	"github.com/spf13/cobra"
)

var (
	//guildID is set by the --guild flag
	guildID string

	cfg     *config.Config
	session *discordgo.Session
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kanadectl",
	Short: "kanadectl manages the application commands of the bot",
	Long: `kanadectl registers or removes the bot's application commands, either
globally or for a single guild. Configuration is read from the same
environment variables and .env file as the bot.`,
	SilenceUsage:      true,
	PersistentPreRunE: connect,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&guildID, "guild", "", "guild to target instead of the global commands (default: KANADE_DISCORD_GUILD_ID)")

	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(deleteCmd)
}

//connect loads the configuration and creates a REST-only discord session
func connect(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}
	cfg.ApplyLogLevel()
	if cfg.ApplicationID == "" {
		return fmt.Errorf("KANADE_DISCORD_APPLICATION_ID must be set")
	}
	if !cmd.Flags().Changed("guild") {
		guildID = cfg.GuildID
	}
	session, err = discord.NewRESTSession(cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}
	return nil
}

func describeTarget() string {
	if guildID == "" {
		return "globally"
	}
	return "in guild " + guildID
}
