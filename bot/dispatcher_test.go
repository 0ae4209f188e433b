package bot

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/callummance/kanade/commands"
	"github.com/callummance/kanade/db"
	"github.com/callummance/kanade/discord"
	"github.com/callummance/kanade/guildmodels"
	"github.com/callummance/kanade/permissions"
	"github.com/callummance/kanade/settings"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type panickingCommand struct {
	descriptor *commands.Descriptor
}

func (c *panickingCommand) Descriptor() *commands.Descriptor { return c.descriptor }

func (c *panickingCommand) Execute(ctx context.Context, inv *commands.Invocation) error {
	panic("handler exploded")
}

type dispatcherFixture struct {
	dispatcher *Dispatcher
	platform   *fakePlatform
	store      *db.MemoryStore
	cache      *settings.Cache
	echo       *countingCommand
	admin      *countingCommand
	failing    *countingCommand
}

func newDispatcherFixture(t *testing.T) *dispatcherFixture {
	t.Helper()
	f := &dispatcherFixture{
		platform: newFakePlatform(),
		store:    db.NewMemoryStore(),
		echo:     &countingCommand{descriptor: commands.MustDescriptor(commands.DescriptorData{Name: "echo", Description: "e"})},
		admin:    &countingCommand{descriptor: commands.MustDescriptor(commands.DescriptorData{Name: "admin", Description: "a", PermissionLevel: 11})},
		failing:  &countingCommand{descriptor: commands.MustDescriptor(commands.DescriptorData{Name: "fail", Description: "f"}), err: errors.New("boom")},
	}
	f.platform.owners["g1"] = "owner"
	f.cache = settings.NewCache(f.store)
	require.NoError(t, f.cache.Preload())

	registry := commands.NewRegistry()
	_, err := registry.Load([]commands.Constructor{
		func() (commands.Command, error) { return f.echo, nil },
		func() (commands.Command, error) { return f.admin, nil },
		func() (commands.Command, error) { return f.failing, nil },
		func() (commands.Command, error) {
			return &panickingCommand{descriptor: commands.MustDescriptor(commands.DescriptorData{Name: "panic", Description: "p"})}, nil
		},
	})
	require.NoError(t, err)

	f.dispatcher = NewDispatcher(DispatcherDeps{
		Commands:  registry,
		Settings:  f.cache,
		Gate:      NewGate(permissions.NewResolver("42", f.cache)),
		Responder: f.platform,
		Owners:    f.platform,
	})
	return f
}

func TestHandleInteractionOutcomes(t *testing.T) {
	f := newDispatcherFixture(t)
	ctx := context.Background()

	assert.Equal(t, OutcomeNoGuild, f.dispatcher.HandleInteraction(ctx, chatCommand("", "echo", nil)))
	assert.Equal(t, OutcomeNoGuild, f.dispatcher.HandleInteraction(ctx, nil))

	component := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:    discordgo.InteractionMessageComponent,
		GuildID: "g1",
		Data:    discordgo.MessageComponentInteractionData{CustomID: "button"},
	}}
	assert.Equal(t, OutcomeNotCommand, f.dispatcher.HandleInteraction(ctx, component))
	_, cached := f.cache.Get("g1")
	assert.True(t, cached, "settings are loaded before the interaction type is checked")

	assert.Equal(t, OutcomeUnknownCommand, f.dispatcher.HandleInteraction(ctx, chatCommand("g1", "missing", member("7", 0))))
	assert.Equal(t, OutcomeExecuted, f.dispatcher.HandleInteraction(ctx, chatCommand("g1", "echo", member("7", 0))))
	assert.Equal(t, 1, f.echo.runs)
	require.Len(t, f.platform.Responses(), 1)
	assert.Equal(t, "done", f.platform.LastResponse().Data.Content)
}

func TestHandleInteractionDenied(t *testing.T) {
	f := newDispatcherFixture(t)
	outcome := f.dispatcher.HandleInteraction(context.Background(), chatCommand("g1", "admin", member("7", 0)))
	assert.Equal(t, OutcomeDenied, outcome)
	assert.Zero(t, f.admin.runs)
	require.NotNil(t, f.platform.LastResponse())
	assert.Equal(t, "Incorrect permission. (11 vs 0)", f.platform.LastResponse().Data.Embeds[0].Description)
}

func TestHandleInteractionPrivilegedPrincipals(t *testing.T) {
	tests := []struct {
		name   string
		member *discordgo.Member
	}{
		{"administrator", member("7", discordgo.PermissionAdministrator)},
		{"guild owner", member("owner", 0)},
		{"bot owner", member("42", 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDispatcherFixture(t)
			assert.Equal(t, OutcomeExecuted, f.dispatcher.HandleInteraction(context.Background(), chatCommand("g1", "admin", tt.member)))
			assert.Equal(t, 1, f.admin.runs)
		})
	}
}

func TestHandleInteractionUsesRoleBindings(t *testing.T) {
	f := newDispatcherFixture(t)
	require.NoError(t, f.store.SetPermissionBinding(guildmodels.PermissionBinding{GuildID: "g1", RoleID: "mods", Level: 11}))

	assert.Equal(t, OutcomeExecuted, f.dispatcher.HandleInteraction(context.Background(), chatCommand("g1", "admin", member("7", 0, "mods"))))
}

func TestHandleInteractionRecoversFailures(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()
	f := newDispatcherFixture(t)

	for _, name := range []string{"fail", "panic"} {
		outcome := f.dispatcher.HandleInteraction(context.Background(), chatCommand("g1", name, member("7", 0)))
		assert.Equal(t, OutcomeFailed, outcome, name)

		resp := f.platform.LastResponse()
		require.NotNil(t, resp)
		assert.Equal(t, "There was an error executing "+name, resp.Data.Content)
		assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)
		assert.NotContains(t, resp.Data.Content, "boom")
	}

	errorsLogged := 0
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.ErrorLevel {
			errorsLogged++
		}
	}
	assert.Equal(t, 2, errorsLogged)
}

func TestHandleInteractionMissingPermissionsLoggedDistinctly(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()
	f := newDispatcherFixture(t)
	f.failing.err = &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusForbidden},
		Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeMissingPermissions, Message: "Missing Permissions"},
	}

	assert.Equal(t, OutcomeFailed, f.dispatcher.HandleInteraction(context.Background(), chatCommand("g1", "fail", member("7", 0))))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.True(t, discord.IsMissingPermissions(f.failing.err))
}

func TestHandleInteractionSettingsUnavailable(t *testing.T) {
	f := newDispatcherFixture(t)
	f.dispatcher.settings = settings.NewCache(failingStore{})

	assert.Equal(t, OutcomeNoSettings, f.dispatcher.HandleInteraction(context.Background(), chatCommand("g1", "echo", member("7", 0))))
	assert.Zero(t, f.echo.runs)
	assert.Empty(t, f.platform.Responses())
}

type recordingEvent struct {
	name string
	mtx  sync.Mutex
	got  []interface{}
	done chan struct{}
}

func (e *recordingEvent) EventName() string { return e.name }

func (e *recordingEvent) Handle(ctx context.Context, payload interface{}) error {
	e.mtx.Lock()
	e.got = append(e.got, payload)
	e.mtx.Unlock()
	e.done <- struct{}{}
	if payload == "explode" {
		panic("event handler exploded")
	}
	return nil
}

func TestRunDeliversEvents(t *testing.T) {
	events := commands.NewEventRegistry()
	rec := &recordingEvent{name: "CUSTOM", done: make(chan struct{}, 4)}
	events.Register(rec)
	d := NewDispatcher(DispatcherDeps{Events: events})

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan error)
	go func() { finished <- d.Run(ctx) }()

	d.Publish("CUSTOM", "explode")
	d.Publish("OTHER", "ignored")
	d.Publish("CUSTOM", "payload")
	for i := 0; i < 2; i++ {
		select {
		case <-rec.done:
		case <-time.After(time.Second):
			t.Fatal("event was not delivered")
		}
	}

	cancel()
	select {
	case err := <-finished:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop")
	}
	rec.mtx.Lock()
	defer rec.mtx.Unlock()
	assert.ElementsMatch(t, []interface{}{"explode", "payload"}, rec.got)
}

func TestPublishAfterRunReturnsDoesNotBlock(t *testing.T) {
	d := NewDispatcher(DispatcherDeps{})
	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan error)
	go func() { finished <- d.Run(ctx) }()

	cancel()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop")
	}

	published := make(chan struct{})
	go func() {
		defer close(published)
		for i := 0; i < 2*eventQueueSize; i++ {
			d.Publish("CUSTOM", i)
		}
	}()
	select {
	case <-published:
	case <-time.After(time.Second):
		t.Fatal("publishing to a stopped dispatcher blocked")
	}
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "denied", OutcomeDenied.String())
	assert.Equal(t, "outcome(99)", Outcome(99).String())
}
