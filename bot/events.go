package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/callummance/kanade/commands"
	"github.com/callummance/kanade/config"
	"github.com/callummance/kanade/discord"
	"github.com/sirupsen/logrus"
)

//readyHandler logs the connected user and publishes commands if configured to
type readyHandler struct {
	deps Dependencies
}

func newReadyHandler(deps Dependencies) (commands.EventHandler, error) {
	return &readyHandler{deps: deps}, nil
}

func (h *readyHandler) EventName() string {
	return discord.EventReady
}

func (h *readyHandler) Handle(ctx context.Context, payload interface{}) error {
	r, ok := payload.(*discordgo.Ready)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %v", payload, discord.EventReady)
	}
	if r.User != nil {
		logrus.Infof("Ready! Logged in as %v#%v (%v) in %d guilds", r.User.Username, r.User.Discriminator, r.User.ID, len(r.Guilds))
	}

	mode := config.RegisterNone
	if h.deps.Config != nil {
		mode = h.deps.Config.RegisterCommands
	}
	if mode == config.RegisterNone {
		return nil
	}
	if h.deps.Publisher == nil || h.deps.Commands == nil {
		return fmt.Errorf("cannot register commands without a publisher and command registry")
	}
	cmds := commands.ApplicationCommands(h.deps.Commands.All())

	var targets []string
	switch {
	case mode == config.RegisterGlobal:
		targets = []string{""}
	case h.deps.Config.GuildID != "":
		targets = []string{h.deps.Config.GuildID}
	default:
		for _, g := range r.Guilds {
			targets = append(targets, g.ID)
		}
	}

	failed := 0
	for _, target := range targets {
		err := h.deps.Publisher.PublishCommands(target, cmds)
		if err == nil {
			continue
		}
		failed++
		if discord.IsMissingPermissions(err) {
			logrus.Warnf("Skipping command registration in guild %v as the bot was not granted access", target)
		} else {
			logrus.Errorf("Failed to register commands for target %q: %v", target, err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("command registration failed for %d of %d targets", failed, len(targets))
	}
	return nil
}
