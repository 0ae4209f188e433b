package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/callummance/kanade/commands"
)

type pingCommand struct {
	descriptor *commands.Descriptor
}

func newPingCommand() (commands.Command, error) {
	d, err := commands.NewDescriptor(commands.DescriptorData{
		Type:        discordgo.ChatApplicationCommand,
		Name:        "ping",
		Description: "Replies with pong.",
	})
	if err != nil {
		return nil, err
	}
	return &pingCommand{descriptor: d}, nil
}

func (c *pingCommand) Descriptor() *commands.Descriptor { return c.descriptor }

func (c *pingCommand) Execute(ctx context.Context, inv *commands.Invocation) error {
	return inv.Reply("pong", false)
}

//getIDCommand is a user context menu command replying with the id of the target user
type getIDCommand struct {
	descriptor *commands.Descriptor
}

func newGetIDCommand() (commands.Command, error) {
	d, err := commands.NewDescriptor(commands.DescriptorData{
		Type: discordgo.UserApplicationCommand,
		Name: "Get ID",
	})
	if err != nil {
		return nil, err
	}
	return &getIDCommand{descriptor: d}, nil
}

func (c *getIDCommand) Descriptor() *commands.Descriptor { return c.descriptor }

func (c *getIDCommand) Execute(ctx context.Context, inv *commands.Invocation) error {
	target := inv.Data().TargetID
	if target == "" {
		return fmt.Errorf("interaction has no target user")
	}
	return inv.Reply(fmt.Sprintf("The id of the target user is %v", target), true)
}

//codeblockCommand is a message context menu command which reposts a message as a code block
type codeblockCommand struct {
	descriptor *commands.Descriptor
}

func newCodeblockCommand() (commands.Command, error) {
	d, err := commands.NewDescriptor(commands.DescriptorData{
		Type: discordgo.MessageApplicationCommand,
		Name: "Convert to Codeblock",
	})
	if err != nil {
		return nil, err
	}
	return &codeblockCommand{descriptor: d}, nil
}

func (c *codeblockCommand) Descriptor() *commands.Descriptor { return c.descriptor }

func (c *codeblockCommand) Execute(ctx context.Context, inv *commands.Invocation) error {
	data := inv.Data()
	if data.Resolved == nil || data.Resolved.Messages[data.TargetID] == nil {
		return fmt.Errorf("target message %v was not resolved", data.TargetID)
	}
	return inv.Reply(codeblock(data.Resolved.Messages[data.TargetID].Content), false)
}

//codeblock wraps content in a fenced code block, dropping any backticks already surrounding it
func codeblock(content string) string {
	content = strings.Trim(strings.TrimSpace(content), "`")
	return "```\n" + content + "```"
}
