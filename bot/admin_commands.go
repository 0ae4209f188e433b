package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/callummance/kanade/commands"
	"github.com/callummance/kanade/guildmodels"
	"github.com/callummance/kanade/permissions"
)

const permissionsCommandName string = "permissions"

//permissionsCommand manages the role bindings of a guild
//syntax: /permissions list | /permissions set <role> <level> | /permissions remove <role>
type permissionsCommand struct {
	descriptor *commands.Descriptor
	deps       Dependencies
}

func newPermissionsCommand(deps Dependencies) (commands.Command, error) {
	d, err := commands.NewDescriptor(commands.DescriptorData{
		Type:        discordgo.ChatApplicationCommand,
		Name:        permissionsCommandName,
		Description: "Manage which roles grant which permission level.",
		Options: []*commands.OptionDescriptor{
			{
				Type:                   discordgo.ApplicationCommandOptionSubCommand,
				Name:                   "list",
				Description:            "List the permission level of every configured role.",
				MinimumPermissionLevel: commands.Level(permissions.LevelNone),
			},
			{
				Type:                   discordgo.ApplicationCommandOptionSubCommand,
				Name:                   "set",
				Description:            "Grant a permission level to everyone holding a role.",
				MinimumPermissionLevel: commands.Level(permissions.LevelAdministrator),
				Options: []*commands.OptionDescriptor{
					{
						Type:        discordgo.ApplicationCommandOptionRole,
						Name:        "role",
						Description: "The role to configure",
						Required:    true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "level",
						Description: fmt.Sprintf("Permission level from %d to %d", guildmodels.MinConfigurableLevel, guildmodels.MaxConfigurableLevel),
						Required:    true,
					},
				},
			},
			{
				Type:                   discordgo.ApplicationCommandOptionSubCommand,
				Name:                   "remove",
				Description:            "Stop a role from granting a permission level.",
				MinimumPermissionLevel: commands.Level(permissions.LevelAdministrator),
				Options: []*commands.OptionDescriptor{
					{
						Type:        discordgo.ApplicationCommandOptionRole,
						Name:        "role",
						Description: "The role to remove",
						Required:    true,
					},
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	return &permissionsCommand{descriptor: d, deps: deps}, nil
}

func (c *permissionsCommand) Descriptor() *commands.Descriptor { return c.descriptor }

func (c *permissionsCommand) Execute(ctx context.Context, inv *commands.Invocation) error {
	if c.deps.Store == nil || c.deps.Settings == nil {
		return fmt.Errorf("permissions command was built without a store")
	}
	path := inv.SubcommandPath()
	if len(path) == 0 {
		return c.respond(inv, ResponseSyntaxError{
			command:     permissionsCommandName,
			description: "a subcommand is required",
			timestamp:   time.Now(),
		})
	}
	var result Response
	var err error
	switch path[0] {
	case "list":
		result, err = c.list(inv)
	case "set":
		result, err = c.set(inv)
	case "remove":
		result, err = c.remove(inv)
	default:
		result = ResponseSyntaxError{
			command:     permissionsCommandName,
			description: fmt.Sprintf("unknown subcommand %v", path[0]),
			timestamp:   time.Now(),
		}
	}
	if err != nil {
		return err
	}
	return c.respond(inv, result)
}

func (c *permissionsCommand) respond(inv *commands.Invocation, result Response) error {
	result.WriteToLog()
	return inv.Respond(result.InteractionResponse())
}

func (c *permissionsCommand) list(inv *commands.Invocation) (Response, error) {
	gid := inv.Interaction.GuildID
	s, err := c.deps.Settings.EnsureLoaded(gid)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]string, len(s.Permissions))
	for _, binding := range s.Permissions {
		fields[fmt.Sprintf("<@&%v>", binding.RoleID)] = fmt.Sprintf("%d", binding.Level)
	}
	description := "No roles have been given a permission level."
	if len(fields) > 0 {
		description = fmt.Sprintf("%d roles grant a permission level.", len(fields))
	}
	return ResponseInfo{
		command:     permissionsCommandName,
		title:       "Role permission levels",
		description: description,
		data:        fields,
		timestamp:   time.Now(),
	}, nil
}

func (c *permissionsCommand) set(inv *commands.Invocation) (Response, error) {
	gid := inv.Interaction.GuildID
	roleOpt, levelOpt := inv.Option("role"), inv.Option("level")
	if roleOpt == nil || levelOpt == nil {
		return ResponseSyntaxError{
			command:     permissionsCommandName,
			description: "both a role and a level are required",
			timestamp:   time.Now(),
		}, nil
	}
	roleID := roleOpt.RoleValue(nil, gid).ID
	level := int(levelOpt.IntValue())
	if err := guildmodels.ValidateLevel(level); err != nil {
		return ResponseSyntaxError{
			command:     permissionsCommandName,
			description: err.Error(),
			timestamp:   time.Now(),
		}, nil
	}
	if c.deps.Resolver != nil {
		if own := c.deps.Resolver.Resolve(inv.Principal); level > own {
			return ResponseSyntaxError{
				command:     permissionsCommandName,
				description: fmt.Sprintf("you cannot grant level %d as your own level is %d", level, own),
				timestamp:   time.Now(),
			}, nil
		}
	}

	err := c.deps.Store.SetPermissionBinding(guildmodels.PermissionBinding{
		GuildID: gid,
		RoleID:  roleID,
		Level:   level,
	})
	if errors.Is(err, guildmodels.ErrInvalidPermissionLevel) {
		return ResponseSyntaxError{
			command:     permissionsCommandName,
			description: err.Error(),
			timestamp:   time.Now(),
		}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to store permission level of role %v in guild %v: %w", roleID, gid, err)
	}
	if _, err := c.deps.Settings.Refresh(gid); err != nil {
		return nil, err
	}
	return ResponseSuccess{
		command:     permissionsCommandName,
		description: fmt.Sprintf("Role <@&%v> now grants permission level %d.", roleID, level),
		timestamp:   time.Now(),
	}, nil
}

func (c *permissionsCommand) remove(inv *commands.Invocation) (Response, error) {
	gid := inv.Interaction.GuildID
	roleOpt := inv.Option("role")
	if roleOpt == nil {
		return ResponseSyntaxError{
			command:     permissionsCommandName,
			description: "a role is required",
			timestamp:   time.Now(),
		}, nil
	}
	roleID := roleOpt.RoleValue(nil, gid).ID
	removed, err := c.deps.Store.RemovePermissionBinding(gid, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to remove permission level of role %v in guild %v: %w", roleID, gid, err)
	}
	if removed == 0 {
		return ResponseSyntaxError{
			command:     permissionsCommandName,
			description: fmt.Sprintf("role <@&%v> does not have a permission level", roleID),
			timestamp:   time.Now(),
		}, nil
	}
	if _, err := c.deps.Settings.Refresh(gid); err != nil {
		return nil, err
	}
	return ResponseSuccess{
		command:     permissionsCommandName,
		description: fmt.Sprintf("Role <@&%v> no longer grants a permission level.", roleID),
		timestamp:   time.Now(),
	}, nil
}
