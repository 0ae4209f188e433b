package bot

import (
	"github.com/bwmarrin/discordgo"
	"github.com/callummance/kanade/commands"
	"github.com/callummance/kanade/config"
	"github.com/callummance/kanade/guildmodels"
	"github.com/callummance/kanade/permissions"
	"github.com/callummance/kanade/settings"
)

//PermissionStore persists permission bindings
type PermissionStore interface {
	SetPermissionBinding(binding guildmodels.PermissionBinding) error
	RemovePermissionBinding(gid, roleID string) (int, error)
}

//CommandPublisher replaces the registered application commands, globally if guildID is empty
type CommandPublisher interface {
	PublishCommands(guildID string, cmds []*discordgo.ApplicationCommand) error
}

//Dependencies are handed to handlers when they are constructed. Handlers which
//are only built to read their descriptors may receive zero Dependencies.
type Dependencies struct {
	Config    *config.Config
	Store     PermissionStore
	Settings  *settings.Cache
	Resolver  *permissions.Resolver
	Commands  *commands.Registry
	Publisher CommandPublisher
}

//CommandConstructors lists every command the bot provides
func CommandConstructors(deps Dependencies) []commands.Constructor {
	return []commands.Constructor{
		newPingCommand,
		newGetIDCommand,
		newCodeblockCommand,
		func() (commands.Command, error) { return newPermissionsCommand(deps) },
	}
}

//EventConstructors lists every event handler the bot provides, besides the dispatcher's own interaction handler
func EventConstructors(deps Dependencies) []commands.EventConstructor {
	return []commands.EventConstructor{
		func() (commands.EventHandler, error) { return newReadyHandler(deps) },
	}
}

//LoadCommandDefinitions builds every command without any dependencies and returns their registration payload
func LoadCommandDefinitions() ([]*discordgo.ApplicationCommand, error) {
	registry := commands.NewRegistry()
	if _, err := registry.Load(CommandConstructors(Dependencies{})); err != nil {
		return nil, err
	}
	return commands.ApplicationCommands(registry.All()), nil
}
