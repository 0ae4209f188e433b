package commands

import "github.com/bwmarrin/discordgo"

//ApplicationCommands converts registered commands into the payload of a bulk
//overwrite request. Descriptions and options are only sent for chat input
//commands, and minimum permission levels are never sent.
func ApplicationCommands(cmds []Command) []*discordgo.ApplicationCommand {
	res := make([]*discordgo.ApplicationCommand, 0, len(cmds))
	for _, cmd := range cmds {
		res = append(res, ApplicationCommand(cmd.Descriptor()))
	}
	return res
}

//ApplicationCommand converts a single descriptor
func ApplicationCommand(d *Descriptor) *discordgo.ApplicationCommand {
	contexts := d.Contexts()
	integration := d.Integration()
	ac := discordgo.ApplicationCommand{
		Type:             d.Type(),
		Name:             d.Name(),
		Contexts:         &contexts,
		IntegrationTypes: &integration,
	}
	if d.Type() == discordgo.ChatApplicationCommand {
		ac.Description = d.Description()
		ac.Options = applicationCommandOptions(d.Options())
	}
	return &ac
}

func applicationCommandOptions(opts []*OptionDescriptor) []*discordgo.ApplicationCommandOption {
	if len(opts) == 0 {
		return nil
	}
	res := make([]*discordgo.ApplicationCommandOption, 0, len(opts))
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		res = append(res, &discordgo.ApplicationCommandOption{
			Type:        opt.Type,
			Name:        opt.Name,
			Description: opt.Description,
			Required:    opt.Required,
			Choices:     opt.Choices,
			Options:     applicationCommandOptions(opt.Options),
		})
	}
	return res
}
