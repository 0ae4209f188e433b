package bot

import (
	"context"
	"time"

	"github.com/callummance/kanade/commands"
	"github.com/callummance/kanade/permissions"
)

//Decision is the outcome of an authorization check
type Decision struct {
	Allowed  bool
	Required int
	Actual   int
}

//Gate checks the permission level of a principal before a command runs
type Gate struct {
	resolver *permissions.Resolver
}

//NewGate creates a gate using the given resolver
func NewGate(resolver *permissions.Resolver) *Gate {
	return &Gate{resolver: resolver}
}

//Authorize decides whether an invocation may run. Commands which are not
//installable to a guild are always allowed. A required level of zero never denies.
func (g *Gate) Authorize(d *commands.Descriptor, inv *commands.Invocation) Decision {
	if !d.IsGuildInstallable() {
		return Decision{Allowed: true}
	}
	required := d.RequiredLevel(inv.SubcommandPath())
	actual := g.resolver.Resolve(inv.Principal)
	if required != 0 && required > actual {
		return Decision{Allowed: false, Required: required, Actual: actual}
	}
	return Decision{Allowed: true, Required: required, Actual: actual}
}

//Run authorizes an invocation and executes the command if allowed. When denied
//a rejection naming both levels is sent as the interaction response instead.
func (g *Gate) Run(ctx context.Context, cmd commands.Command, inv *commands.Invocation) (Decision, error) {
	decision := g.Authorize(cmd.Descriptor(), inv)
	if !decision.Allowed {
		result := ResponseNotAllowed{
			command:   cmd.Descriptor().Name(),
			required:  decision.Required,
			actual:    decision.Actual,
			timestamp: time.Now(),
		}
		result.WriteToLog()
		return decision, inv.Respond(result.InteractionResponse())
	}
	return decision, cmd.Execute(ctx, inv)
}
