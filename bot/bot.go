package bot

import (
	"context"
	"fmt"
	"net/url"

	"github.com/callummance/kanade/commands"
	"github.com/callummance/kanade/config"
	"github.com/callummance/kanade/db"
	"github.com/callummance/kanade/discord"
	"github.com/callummance/kanade/permissions"
	"github.com/callummance/kanade/settings"
	"github.com/sirupsen/logrus"
)

//Store is everything the bot needs from its persistence layer
type Store interface {
	settings.Store
	PermissionStore
}

//Platform is the chat platform connection the bot runs on
type Platform interface {
	commands.Responder
	GuildOwnerLookup
	CommandPublisher
	Open() error
	Close()
	BotAddURL() (*url.URL, error)
}

//Bot represents an instance of the discord bot, containing handles to the various external connections.
type Bot struct {
	config   *config.Config
	store    Store
	platform Platform

	settings   *settings.Cache
	resolver   *permissions.Resolver
	commands   *commands.Registry
	events     *commands.EventRegistry
	dispatcher *Dispatcher
}

//Init connects to the database and discord and creates a new Bot instance. The
//gateway connection is opened last, so no events arrive before the bot is ready.
func Init(cfg *config.Config) (*Bot, error) {
	conn, err := db.Init(cfg.DBAddr, cfg.DBName)
	if err != nil {
		logrus.Errorf("Cannot start bot due to error initializing database connection: %v", err)
		return nil, err
	}

	res := &Bot{}
	disc, err := discord.NewEventSource(cfg.DiscordToken, cfg.ApplicationID, res)
	if err != nil {
		logrus.Errorf("Cannot start bot due to error initializing discord connection: %v", err)
		conn.Close()
		return nil, err
	}
	if err := res.setup(cfg, conn, disc); err != nil {
		conn.Close()
		return nil, err
	}
	if err := disc.Open(); err != nil {
		logrus.Errorf("Cannot start bot due to error opening discord connection: %v", err)
		conn.Close()
		return nil, err
	}
	return res, nil
}

//New creates a Bot on top of an existing store and platform without opening any connection
func New(cfg *config.Config, store Store, platform Platform) (*Bot, error) {
	res := &Bot{}
	if err := res.setup(cfg, store, platform); err != nil {
		return nil, err
	}
	return res, nil
}

func (b *Bot) setup(cfg *config.Config, store Store, platform Platform) error {
	if cfg == nil {
		return fmt.Errorf("no configuration was provided")
	}
	b.config = cfg
	b.store = store
	b.platform = platform

	b.settings = settings.NewCache(store)
	if err := b.settings.Preload(); err != nil {
		return fmt.Errorf("failed to preload default settings: %w", err)
	}
	b.resolver = permissions.NewResolver(cfg.OwnerID, b.settings)
	b.commands = commands.NewRegistry()
	b.events = commands.NewEventRegistry()

	deps := Dependencies{
		Config:    cfg,
		Store:     store,
		Settings:  b.settings,
		Resolver:  b.resolver,
		Commands:  b.commands,
		Publisher: platform,
	}
	if _, err := b.commands.Load(CommandConstructors(deps)); err != nil {
		return err
	}
	b.events.Load(EventConstructors(deps))

	b.dispatcher = NewDispatcher(DispatcherDeps{
		Commands:  b.commands,
		Events:    b.events,
		Settings:  b.settings,
		Gate:      NewGate(b.resolver),
		Responder: platform,
		Owners:    platform,
	})
	b.events.Register(&interactionCreateHandler{dispatcher: b.dispatcher})
	return nil
}

//HandleEvent queues a gateway event for the dispatcher
func (b *Bot) HandleEvent(name string, payload interface{}) {
	b.dispatcher.Publish(name, payload)
}

//Run delivers events until ctx is cancelled
func (b *Bot) Run(ctx context.Context) error {
	return b.dispatcher.Run(ctx)
}

//Dispatcher returns the dispatcher events are delivered through
func (b *Bot) Dispatcher() *Dispatcher {
	return b.dispatcher
}

//Settings returns the guild settings cache
func (b *Bot) Settings() *settings.Cache {
	return b.settings
}

//BotAddURL generates a URL that can be used to add the bot to a server
func (b *Bot) BotAddURL() (*url.URL, error) {
	return b.platform.BotAddURL()
}

//Close cleanly terminates the bot instance
func (b *Bot) Close() {
	logrus.Info("Terminating bot...")
	if b.platform != nil {
		b.platform.Close()
	}
	if closer, ok := b.store.(interface{ Close() }); ok {
		closer.Close()
	}
}
