package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/callummance/kanade/commands"
	"github.com/callummance/kanade/discord"
	"github.com/callummance/kanade/settings"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const eventQueueSize int = 256

//Event is a single inbound gateway event
type Event struct {
	ID      string
	Name    string
	Payload interface{}
}

//Outcome describes how the dispatcher handled an interaction
type Outcome int

//Possible interaction outcomes
const (
	OutcomeNoGuild Outcome = iota
	OutcomeNoSettings
	OutcomeNotCommand
	OutcomeUnknownCommand
	OutcomeDenied
	OutcomeExecuted
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoGuild:
		return "no guild"
	case OutcomeNoSettings:
		return "no settings"
	case OutcomeNotCommand:
		return "not a command"
	case OutcomeUnknownCommand:
		return "unknown command"
	case OutcomeDenied:
		return "denied"
	case OutcomeExecuted:
		return "executed"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

//Dispatcher receives gateway events, delivers them to subscribed event
//handlers and turns interactions into authorized command executions.
type Dispatcher struct {
	commands  *commands.Registry
	events    *commands.EventRegistry
	settings  *settings.Cache
	gate      *Gate
	responder commands.Responder
	owners    GuildOwnerLookup

	queue    chan Event
	inflight sync.WaitGroup
	//stopped is closed once Run returns; later events are dropped
	stopped  chan struct{}
	stopOnce sync.Once
}

//DispatcherDeps contains the services a Dispatcher is built from
type DispatcherDeps struct {
	Commands  *commands.Registry
	Events    *commands.EventRegistry
	Settings  *settings.Cache
	Gate      *Gate
	Responder commands.Responder
	Owners    GuildOwnerLookup
}

//NewDispatcher creates a dispatcher. Event handlers are taken from deps.Events
//when events are delivered, so handlers may be registered until Run is called.
func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	events := deps.Events
	if events == nil {
		events = commands.NewEventRegistry()
	}
	return &Dispatcher{
		commands:  deps.Commands,
		events:    events,
		settings:  deps.Settings,
		gate:      deps.Gate,
		responder: deps.Responder,
		owners:    deps.Owners,
		queue:     make(chan Event, eventQueueSize),
		stopped:   make(chan struct{}),
	}
}

//Publish queues an event for delivery. It blocks while the queue is full,
//unless Run has returned, in which case the event is dropped.
func (d *Dispatcher) Publish(name string, payload interface{}) {
	ev := Event{
		ID:      uuid.NewString(),
		Name:    name,
		Payload: payload,
	}
	select {
	case <-d.stopped:
		logrus.WithField("event_id", ev.ID).Debugf("Dropping event %v as the dispatcher has stopped", name)
		return
	default:
	}
	select {
	case d.queue <- ev:
	case <-d.stopped:
		logrus.WithField("event_id", ev.ID).Debugf("Dropping event %v as the dispatcher has stopped", name)
	}
}

//Run delivers queued events until ctx is cancelled, then waits for in-flight handlers to finish.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			d.stopOnce.Do(func() { close(d.stopped) })
			d.inflight.Wait()
			return ctx.Err()
		case ev := <-d.queue:
			handlers := d.events.Handlers(ev.Name)
			if len(handlers) == 0 {
				logrus.Tracef("No handlers subscribed to event %v", ev.Name)
				continue
			}
			for _, h := range handlers {
				d.inflight.Add(1)
				go d.deliver(ctx, h, ev)
			}
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, h commands.EventHandler, ev Event) {
	defer d.inflight.Done()
	//Prevent panic from crashing the whole bot
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("event_id", ev.ID).Errorf("Handler for event %v panicked: %v", ev.Name, r)
		}
	}()
	if err := h.Handle(ctx, ev.Payload); err != nil {
		logrus.WithField("event_id", ev.ID).Errorf("Handler for event %v failed: %v", ev.Name, err)
	}
}

//HandleInteraction runs a single interaction through settings loading, command lookup and authorization.
func (d *Dispatcher) HandleInteraction(ctx context.Context, i *discordgo.InteractionCreate) Outcome {
	if i == nil || i.Interaction == nil || i.GuildID == "" {
		return OutcomeNoGuild
	}
	log := logrus.WithFields(logrus.Fields{
		"guild":       i.GuildID,
		"interaction": i.ID,
	})

	s, err := d.settings.EnsureLoaded(i.GuildID)
	if err != nil {
		log.Errorf("Dropping interaction as guild settings could not be loaded: %v", err)
		return OutcomeNoSettings
	}
	if s == nil {
		return OutcomeNoSettings
	}

	if i.Type != discordgo.InteractionApplicationCommand {
		return OutcomeNotCommand
	}
	data := i.ApplicationCommandData()
	cmd, ok := d.commands.Get(data.CommandType, data.Name)
	if !ok {
		log.Debugf("Got interaction for unknown command %v", data.Name)
		return OutcomeUnknownCommand
	}
	return d.execute(ctx, cmd, i.Interaction, log.WithField("command", data.Name))
}

func (d *Dispatcher) execute(ctx context.Context, cmd commands.Command, i *discordgo.Interaction, log *logrus.Entry) (outcome Outcome) {
	name := cmd.Descriptor().Name()
	defer func() {
		if r := recover(); r != nil {
			d.fail(i, name, fmt.Errorf("command panicked: %v", r), log)
			outcome = OutcomeFailed
		}
	}()

	inv := &commands.Invocation{
		Interaction: i,
		Principal:   PrincipalFromInteraction(i, d.owners),
		Responder:   d.responder,
	}
	decision, err := d.gate.Run(ctx, cmd, inv)
	if err != nil {
		d.fail(i, name, err, log)
		return OutcomeFailed
	}
	if !decision.Allowed {
		return OutcomeDenied
	}
	return OutcomeExecuted
}

//fail logs a command failure and tells the user about it without exposing the error
func (d *Dispatcher) fail(i *discordgo.Interaction, name string, err error, log *logrus.Entry) {
	result := ResponseInternalError{
		command:   name,
		err:       err,
		timestamp: time.Now(),
	}
	if discord.IsMissingPermissions(err) {
		log.Warnf("Bot is missing discord permissions needed by command %v: %v", name, err)
	} else {
		result.WriteToLog()
	}
	if rerr := d.responder.Respond(i, result.InteractionResponse()); rerr != nil {
		log.Errorf("Failed to send failure notice for command %v due to error %v", name, rerr)
	}
}

//interactionCreateHandler subscribes the dispatcher to interaction events
type interactionCreateHandler struct {
	dispatcher *Dispatcher
}

func (h *interactionCreateHandler) EventName() string {
	return discord.EventInteractionCreate
}

func (h *interactionCreateHandler) Handle(ctx context.Context, payload interface{}) error {
	i, ok := payload.(*discordgo.InteractionCreate)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %v", payload, discord.EventInteractionCreate)
	}
	outcome := h.dispatcher.HandleInteraction(ctx, i)
	logrus.Tracef("Interaction %v finished: %v", i.ID, outcome)
	return nil
}
