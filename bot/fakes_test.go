package bot

import (
	"errors"
	"net/url"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/callummance/kanade/guildmodels"
)

type publishCall struct {
	guildID string
	cmds    []*discordgo.ApplicationCommand
}

//fakePlatform records everything the bot sends to discord
type fakePlatform struct {
	mtx       sync.Mutex
	responses []*discordgo.InteractionResponse
	published []publishCall

	owners     map[string]string
	respondErr error
	publishErr map[string]error
	opened     bool
	closed     bool
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		owners:     make(map[string]string),
		publishErr: make(map[string]error),
	}
}

func (f *fakePlatform) Respond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.responses = append(f.responses, resp)
	return f.respondErr
}

func (f *fakePlatform) GuildOwnerID(guildID string) (string, error) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	owner, ok := f.owners[guildID]
	if !ok {
		return "", errors.New("unknown guild")
	}
	return owner, nil
}

func (f *fakePlatform) PublishCommands(guildID string, cmds []*discordgo.ApplicationCommand) error {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.published = append(f.published, publishCall{guildID: guildID, cmds: cmds})
	return f.publishErr[guildID]
}

func (f *fakePlatform) Open() error {
	f.opened = true
	return nil
}

func (f *fakePlatform) Close() {
	f.closed = true
}

func (f *fakePlatform) BotAddURL() (*url.URL, error) {
	return url.Parse("https://discord.com/api/oauth2/authorize?client_id=1")
}

func (f *fakePlatform) Responses() []*discordgo.InteractionResponse {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return append([]*discordgo.InteractionResponse(nil), f.responses...)
}

func (f *fakePlatform) LastResponse() *discordgo.InteractionResponse {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	if len(f.responses) == 0 {
		return nil
	}
	return f.responses[len(f.responses)-1]
}

//failingStore is a Store whose reads always fail
type failingStore struct{}

func (failingStore) UpsertGuildSettings(guildID string) (*guildmodels.GuildSettings, error) {
	return nil, errors.New("database unreachable")
}

func (failingStore) SetPermissionBinding(binding guildmodels.PermissionBinding) error {
	return errors.New("database unreachable")
}

func (failingStore) RemovePermissionBinding(gid, roleID string) (int, error) {
	return 0, errors.New("database unreachable")
}

func member(userID string, perms int64, roles ...string) *discordgo.Member {
	return &discordgo.Member{
		User:        &discordgo.User{ID: userID},
		Roles:       roles,
		Permissions: perms,
	}
}

func chatCommand(guildID, name string, m *discordgo.Member, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:      "interaction-" + name,
		Type:    discordgo.InteractionApplicationCommand,
		GuildID: guildID,
		Member:  m,
		Data: discordgo.ApplicationCommandInteractionData{
			CommandType: discordgo.ChatApplicationCommand,
			Name:        name,
			Options:     opts,
		},
	}}
}

func subcommand(name string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Type:    discordgo.ApplicationCommandOptionSubCommand,
		Name:    name,
		Options: opts,
	}
}

func roleOption(roleID string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Type:  discordgo.ApplicationCommandOptionRole,
		Name:  "role",
		Value: roleID,
	}
}

func levelOption(level int) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Type:  discordgo.ApplicationCommandOptionInteger,
		Name:  "level",
		Value: float64(level),
	}
}
