package discord

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

//ErrNoCommands is returned when there are no registered commands to delete
var ErrNoCommands = errors.New("no registered commands")

//NewRESTSession creates a session that is only used for REST calls and never opens a gateway connection
func NewRESTSession(token string) (*discordgo.Session, error) {
	if token == "" {
		return nil, fmt.Errorf("no discord bot token was provided")
	}
	return discordgo.New("Bot " + token)
}

//PublishCommands replaces every registered command of an application with cmds. An empty guildID targets the global
//commands, anything else the commands of that guild only.
func PublishCommands(s *discordgo.Session, appID, guildID string, cmds []*discordgo.ApplicationCommand) ([]*discordgo.ApplicationCommand, error) {
	if appID == "" {
		return nil, fmt.Errorf("no application id was provided")
	}
	target := describeTarget(guildID)
	logrus.Infof("Started refreshing %d application commands %v.", len(cmds), target)
	res, err := s.ApplicationCommandBulkOverwrite(appID, guildID, cmds)
	if err != nil {
		if IsMissingPermissions(err) {
			logrus.Errorf("Missing access %v when setting commands.", target)
		}
		return nil, fmt.Errorf("failed to register commands %v: %w", target, err)
	}
	logrus.Infof("Successfully refreshed %d application commands %v.", len(res), target)
	return res, nil
}

//DeleteCommands removes every registered command of an application, globally if guildID is empty. It returns
//the number of removed commands, or ErrNoCommands if there were none.
func DeleteCommands(s *discordgo.Session, appID, guildID string) (int, error) {
	if appID == "" {
		return 0, fmt.Errorf("no application id was provided")
	}
	target := describeTarget(guildID)
	existing, err := s.ApplicationCommands(appID, guildID)
	if err != nil {
		return 0, fmt.Errorf("failed to list commands %v: %w", target, err)
	}
	if len(existing) == 0 {
		return 0, fmt.Errorf("%w %v", ErrNoCommands, target)
	}
	logrus.Infof("Started removing %d application commands %v.", len(existing), target)
	_, err = s.ApplicationCommandBulkOverwrite(appID, guildID, []*discordgo.ApplicationCommand{})
	if err != nil {
		return 0, fmt.Errorf("failed to remove commands %v: %w", target, err)
	}
	logrus.Infof("Successfully removed %d application commands %v.", len(existing), target)
	return len(existing), nil
}

//IsMissingPermissions returns true if err was caused by discord refusing the bot access to a resource
func IsMissingPermissions(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeMissingAccess, discordgo.ErrCodeMissingPermissions:
			return true
		}
	}
	return restErr.Response != nil && restErr.Response.StatusCode == http.StatusForbidden
}

func describeTarget(guildID string) string {
	if guildID == "" {
		return "globally"
	}
	return fmt.Sprintf("in guild %v", guildID)
}
