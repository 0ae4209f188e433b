package commands

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/callummance/kanade/guildmodels"
)

//ErrInvalidDescriptor is returned when a descriptor is missing required fields
var ErrInvalidDescriptor = errors.New("invalid command descriptor")

//OptionDescriptor describes a single command option. MinimumPermissionLevel is
//only meaningful on subcommands and subcommand groups, where it overrides the
//command-level default. It is never sent to discord.
type OptionDescriptor struct {
	Type        discordgo.ApplicationCommandOptionType
	Name        string
	Description string
	Required    bool
	Choices     []*discordgo.ApplicationCommandOptionChoice
	Options     []*OptionDescriptor

	MinimumPermissionLevel *int
}

//Level is a helper for populating MinimumPermissionLevel
func Level(l int) *int {
	return &l
}

//DescriptorData is the input to NewDescriptor. Zero values select the defaults.
type DescriptorData struct {
	Type            discordgo.ApplicationCommandType
	Name            string
	Description     string
	Options         []*OptionDescriptor
	PermissionLevel int
	Contexts        []discordgo.InteractionContextType
	Integration     []discordgo.ApplicationIntegrationType
}

//Descriptor is the static, immutable metadata of a registered command
type Descriptor struct {
	data DescriptorData
}

//NewDescriptor validates a descriptor and fills in defaults. Any permission
//level outside of [0,16], on the command or on any option, is rejected.
//The descriptor keeps its own copy of every option, so later changes to data have no effect.
func NewDescriptor(data DescriptorData) (*Descriptor, error) {
	data.Options = cloneOptions(data.Options)
	data.Contexts = append([]discordgo.InteractionContextType(nil), data.Contexts...)
	data.Integration = append([]discordgo.ApplicationIntegrationType(nil), data.Integration...)
	if data.Type == 0 {
		data.Type = discordgo.ChatApplicationCommand
	}
	if data.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidDescriptor)
	}
	if data.Type == discordgo.ChatApplicationCommand && data.Description == "" {
		return nil, fmt.Errorf("%w: chat input command %v requires a description", ErrInvalidDescriptor, data.Name)
	}
	if err := guildmodels.ValidateLevel(data.PermissionLevel); err != nil {
		return nil, fmt.Errorf("command %v: %w", data.Name, err)
	}
	if err := validateOptions(data.Name, data.Options); err != nil {
		return nil, err
	}
	if len(data.Contexts) == 0 {
		data.Contexts = []discordgo.InteractionContextType{discordgo.InteractionContextGuild}
	}
	if len(data.Integration) == 0 {
		data.Integration = []discordgo.ApplicationIntegrationType{discordgo.ApplicationIntegrationGuildInstall}
	}
	return &Descriptor{data: data}, nil
}

//MustDescriptor is like NewDescriptor but panics on error. Intended for package level command tables.
func MustDescriptor(data DescriptorData) *Descriptor {
	d, err := NewDescriptor(data)
	if err != nil {
		panic(err)
	}
	return d
}

func cloneOptions(opts []*OptionDescriptor) []*OptionDescriptor {
	if opts == nil {
		return nil
	}
	res := make([]*OptionDescriptor, 0, len(opts))
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		c := *opt
		if opt.MinimumPermissionLevel != nil {
			c.MinimumPermissionLevel = Level(*opt.MinimumPermissionLevel)
		}
		if opt.Choices != nil {
			c.Choices = make([]*discordgo.ApplicationCommandOptionChoice, 0, len(opt.Choices))
			for _, choice := range opt.Choices {
				if choice == nil {
					continue
				}
				cc := *choice
				c.Choices = append(c.Choices, &cc)
			}
		}
		c.Options = cloneOptions(opt.Options)
		res = append(res, &c)
	}
	return res
}

func validateOptions(command string, opts []*OptionDescriptor) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if opt.MinimumPermissionLevel != nil {
			if err := guildmodels.ValidateLevel(*opt.MinimumPermissionLevel); err != nil {
				return fmt.Errorf("command %v option %v: %w", command, opt.Name, err)
			}
		}
		if err := validateOptions(command, opt.Options); err != nil {
			return err
		}
	}
	return nil
}

//Type returns the command type
func (d *Descriptor) Type() discordgo.ApplicationCommandType { return d.data.Type }

//Name returns the command name
func (d *Descriptor) Name() string { return d.data.Name }

//Description returns the command description, empty for context menu commands
func (d *Descriptor) Description() string { return d.data.Description }

//PermissionLevel returns the command-level minimum permission level
func (d *Descriptor) PermissionLevel() int { return d.data.PermissionLevel }

//Options returns a copy of the top level options
func (d *Descriptor) Options() []*OptionDescriptor { return cloneOptions(d.data.Options) }

//Contexts returns the surfaces the command may be invoked from
func (d *Descriptor) Contexts() []discordgo.InteractionContextType {
	return append([]discordgo.InteractionContextType(nil), d.data.Contexts...)
}

//Integration returns the install surfaces the command is exposed on
func (d *Descriptor) Integration() []discordgo.ApplicationIntegrationType {
	return append([]discordgo.ApplicationIntegrationType(nil), d.data.Integration...)
}

//IsGuildInstallable returns true if the command is exposed when the bot is installed to a guild
func (d *Descriptor) IsGuildInstallable() bool {
	for _, it := range d.data.Integration {
		if it == discordgo.ApplicationIntegrationGuildInstall {
			return true
		}
	}
	return false
}

//RequiredLevel returns the minimum permission level needed to invoke the
//subcommand at path (empty for the command itself). The most specific level
//declared along the path wins; otherwise the command-level default applies.
func (d *Descriptor) RequiredLevel(path []string) int {
	required := d.data.PermissionLevel
	opts := d.data.Options
	for _, name := range path {
		opt := findOption(opts, name)
		if opt == nil {
			break
		}
		if opt.MinimumPermissionLevel != nil {
			required = *opt.MinimumPermissionLevel
		}
		opts = opt.Options
	}
	return required
}

func findOption(opts []*OptionDescriptor, name string) *OptionDescriptor {
	for _, opt := range opts {
		if opt != nil && opt.Name == name {
			return opt
		}
	}
	return nil
}
