package commands

import (
	"errors"
	"fmt"
	"sort"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

//ErrDuplicateCommand is returned when two commands of the same type share a name
var ErrDuplicateCommand = errors.New("duplicate command name")

type commandKey struct {
	commandType discordgo.ApplicationCommandType
	name        string
}

//LoadReport summarises a registry load pass
type LoadReport struct {
	Loaded  int
	Skipped int
}

//Registry owns every loaded command handler, indexed by type and name
type Registry struct {
	commands map[commandKey]Command
}

//NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{commands: make(map[commandKey]Command)}
}

//Load constructs every command in ctors. A constructor that fails is logged and
//skipped. Two commands with the same type and name fail the whole load.
func (r *Registry) Load(ctors []Constructor) (LoadReport, error) {
	var report LoadReport
	for idx, ctor := range ctors {
		cmd, err := construct(ctor)
		if err != nil {
			logrus.Warnf("Skipping command #%d as it could not be loaded: %v", idx, err)
			report.Skipped++
			continue
		}
		if err := r.Register(cmd); err != nil {
			logrus.Errorf("Failed to register command %v: %v", cmd.Descriptor().Name(), err)
			return report, err
		}
		logrus.Debugf("Loaded command: %v", cmd.Descriptor().Name())
		report.Loaded++
	}
	logrus.Infof("Loaded %d commands (%d skipped)", r.Len(), report.Skipped)
	return report, nil
}

func construct(ctor Constructor) (cmd Command, err error) {
	if ctor == nil {
		return nil, fmt.Errorf("nil constructor")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("constructor panicked: %v", rec)
		}
	}()
	cmd, err = ctor()
	if err != nil {
		return nil, err
	}
	if cmd == nil || cmd.Descriptor() == nil {
		return nil, fmt.Errorf("constructor returned no command")
	}
	return cmd, nil
}

//Register adds a single command
func (r *Registry) Register(cmd Command) error {
	d := cmd.Descriptor()
	key := commandKey{commandType: d.Type(), name: d.Name()}
	if _, exists := r.commands[key]; exists {
		return fmt.Errorf("%w: %v", ErrDuplicateCommand, d.Name())
	}
	r.commands[key] = cmd
	return nil
}

//Get returns the command of the given type and name
func (r *Registry) Get(commandType discordgo.ApplicationCommandType, name string) (Command, bool) {
	cmd, ok := r.commands[commandKey{commandType: commandType, name: name}]
	return cmd, ok
}

//All returns every registered command, sorted by type and then name
func (r *Registry) All() []Command {
	list := make([]Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		list = append(list, cmd)
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i].Descriptor(), list[j].Descriptor()
		if a.Type() != b.Type() {
			return a.Type() < b.Type()
		}
		return a.Name() < b.Name()
	})
	return list
}

//Len returns the number of registered commands
func (r *Registry) Len() int {
	return len(r.commands)
}

//EventRegistry owns every loaded event handler, indexed by event name
type EventRegistry struct {
	handlers map[string][]EventHandler
	count    int
}

//NewEventRegistry returns an empty event registry
func NewEventRegistry() *EventRegistry {
	return &EventRegistry{handlers: make(map[string][]EventHandler)}
}

//Load constructs every event handler in ctors, skipping and logging failures
func (r *EventRegistry) Load(ctors []EventConstructor) LoadReport {
	var report LoadReport
	for idx, ctor := range ctors {
		h, err := constructEvent(ctor)
		if err != nil {
			logrus.Warnf("Skipping event handler #%d as it could not be loaded: %v", idx, err)
			report.Skipped++
			continue
		}
		r.Register(h)
		logrus.Debugf("Loaded event: %v", h.EventName())
		report.Loaded++
	}
	logrus.Infof("Loaded %d events (%d skipped)", r.Len(), report.Skipped)
	return report
}

func constructEvent(ctor EventConstructor) (h EventHandler, err error) {
	if ctor == nil {
		return nil, fmt.Errorf("nil constructor")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("constructor panicked: %v", rec)
		}
	}()
	h, err = ctor()
	if err != nil {
		return nil, err
	}
	if h == nil || h.EventName() == "" {
		return nil, fmt.Errorf("constructor returned no event handler")
	}
	return h, nil
}

//Register subscribes a handler to its event name
func (r *EventRegistry) Register(h EventHandler) {
	r.handlers[h.EventName()] = append(r.handlers[h.EventName()], h)
	r.count++
}

//Handlers returns the handlers subscribed to the given event
func (r *EventRegistry) Handlers(name string) []EventHandler {
	return r.handlers[name]
}

//Len returns the number of registered event handlers
func (r *EventRegistry) Len() int {
	return r.count
}
