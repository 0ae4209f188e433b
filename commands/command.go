// Package commands defines the command and event handler contracts, the
// descriptors commands are registered with, and the registry that owns them.
package commands

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/callummance/kanade/permissions"
)

//Command is implemented by every command handler
type Command interface {
	Descriptor() *Descriptor
	Execute(ctx context.Context, inv *Invocation) error
}

//EventHandler is implemented by every gateway event handler
type EventHandler interface {
	EventName() string
	Handle(ctx context.Context, payload interface{}) error
}

//Constructor builds a command once, at load time
type Constructor func() (Command, error)

//EventConstructor builds an event handler once, at load time
type EventConstructor func() (EventHandler, error)

//Responder delivers the response to an interaction
type Responder interface {
	Respond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) error
}

//Invocation is a single execution of a command
type Invocation struct {
	Interaction *discordgo.Interaction
	Principal   permissions.Principal
	Responder   Responder
}

//Data returns the application command data of the interaction
func (inv *Invocation) Data() discordgo.ApplicationCommandInteractionData {
	return inv.Interaction.ApplicationCommandData()
}

//SubcommandPath returns the invoked subcommand group and subcommand names, in order.
//It is empty when a command without subcommands was invoked.
func (inv *Invocation) SubcommandPath() []string {
	if inv.Interaction == nil || inv.Interaction.Type != discordgo.InteractionApplicationCommand {
		return nil
	}
	data := inv.Data()
	if data.CommandType != discordgo.ChatApplicationCommand {
		return nil
	}
	var path []string
	opts := data.Options
	for len(opts) > 0 {
		opt := opts[0]
		if opt.Type != discordgo.ApplicationCommandOptionSubCommandGroup && opt.Type != discordgo.ApplicationCommandOptionSubCommand {
			break
		}
		path = append(path, opt.Name)
		opts = opt.Options
	}
	return path
}

//Option returns the named option of the invoked subcommand, or of the command itself
func (inv *Invocation) Option(name string) *discordgo.ApplicationCommandInteractionDataOption {
	opts := inv.Data().Options
	for len(opts) > 0 {
		t := opts[0].Type
		if t != discordgo.ApplicationCommandOptionSubCommandGroup && t != discordgo.ApplicationCommandOptionSubCommand {
			break
		}
		opts = opts[0].Options
	}
	for _, opt := range opts {
		if opt.Name == name {
			return opt
		}
	}
	return nil
}

//Reply sends a plain message response, optionally ephemeral
func (inv *Invocation) Reply(content string, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{
		Content: content,
	}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return inv.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

//Respond delivers a complete interaction response
func (inv *Invocation) Respond(resp *discordgo.InteractionResponse) error {
	return inv.Responder.Respond(inv.Interaction, resp)
}
