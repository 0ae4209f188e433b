package discord

import (
	"fmt"
	"net/url"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

const botScope = "bot applications.commands"
const permissions = discordgo.PermissionAllText | discordgo.PermissionAllChannel

//Gateway event names forwarded to the EventHandler
const (
	EventReady             = "READY"
	EventInteractionCreate = "INTERACTION_CREATE"
)

//EventHandler is a struct which can handle all the events the discord listener generates.
type EventHandler interface {
	HandleEvent(name string, payload interface{})
}

//EventSource represents a connection to the Discord gateway
type EventSource struct {
	discordClient *discordgo.Session
	handler       EventHandler
	applicationID string
}

//NewEventSource creates an EventSource forwarding gateway events to handler. No connection is made until Open is called.
func NewEventSource(token, applicationID string, handler EventHandler) (*EventSource, error) {
	if token == "" {
		return nil, fmt.Errorf("no discord bot token was provided")
	}
	//Create new client
	dc, err := discordgo.New("Bot " + token)
	if err != nil {
		logrus.Warnf("Failed to create Discord gateway client due to %v", err)
		return nil, err
	}
	dispatch := EventSource{
		discordClient: dc,
		handler:       handler,
		applicationID: applicationID,
	}

	//Register event handlers
	dc.AddHandler(dispatch.dispatchReadyEvent)
	dc.AddHandler(dispatch.dispatchInteractionCreateEvent)

	//Register intents
	dc.Identify.Intents = discordgo.IntentsGuilds

	return &dispatch, nil
}

//Open opens a websocket connection to the gateway
func (d *EventSource) Open() error {
	err := d.discordClient.Open()
	if err != nil {
		logrus.Errorf("Failed to connect to discord websockets gateway; encountered error %v", err)
		return err
	}
	return nil
}

//BotAddURL generates a URL that can be used to add the bot to a server
func (d *EventSource) BotAddURL() (*url.URL, error) {
	clientID := d.applicationID
	if clientID == "" {
		user, err := d.discordClient.User("@me")
		if err != nil {
			return nil, err
		}
		clientID = user.ID
	}

	url, err := url.Parse("https://discord.com/api/oauth2/authorize")
	if err != nil {
		return nil, err
	}
	q := url.Query()
	q.Set("client_id", clientID)
	q.Set("scope", botScope)
	q.Set("permissions", fmt.Sprintf("%d", permissions))
	url.RawQuery = q.Encode()

	return url, nil
}

//Close cleanly terminates the Discord connection
func (d *EventSource) Close() {
	logrus.Info("Terminating discord event listener...")
	_ = d.discordClient.Close()
}

//Session returns a handle to the underlying discordgo session
func (d *EventSource) Session() *discordgo.Session {
	return d.discordClient
}

//Respond delivers the response to an interaction
func (d *EventSource) Respond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	return d.discordClient.InteractionRespond(i, resp)
}

//GuildOwnerID returns the ID of the owner of a guild, preferring the state cache over the REST API
func (d *EventSource) GuildOwnerID(guildID string) (string, error) {
	if d.discordClient.State != nil {
		if g, err := d.discordClient.State.Guild(guildID); err == nil && g.OwnerID != "" {
			return g.OwnerID, nil
		}
	}
	g, err := d.discordClient.Guild(guildID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch guild %v: %w", guildID, err)
	}
	return g.OwnerID, nil
}

//PublishCommands replaces the registered commands of the application, globally if guildID is empty
func (d *EventSource) PublishCommands(guildID string, cmds []*discordgo.ApplicationCommand) error {
	appID := d.applicationID
	if appID == "" && d.discordClient.State != nil && d.discordClient.State.User != nil {
		appID = d.discordClient.State.User.ID
	}
	_, err := PublishCommands(d.discordClient, appID, guildID, cmds)
	return err
}

func (d *EventSource) dispatchReadyEvent(s *discordgo.Session, r *discordgo.Ready) {
	d.handler.HandleEvent(EventReady, r)
}

func (d *EventSource) dispatchInteractionCreateEvent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	d.handler.HandleEvent(EventInteractionCreate, i)
}
