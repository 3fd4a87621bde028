package fsm

import (
	"context"
	"errors"

	loopfsm "github.com/looplab/fsm"

	"github.com/neomorfeo/fabflow/internal/domain"
)

// Compile-time check: Validator implements domain.TransitionValidator.
var _ domain.TransitionValidator = (*Validator)(nil)

// events converts domain.Rules into looplab/fsm EventDesc format. Each
// rule becomes an "action:role" event; rules sharing an event name and
// destination collapse into one EventDesc with several sources.
var events = buildEvents(domain.Rules)

// preconditions indexes the table by (source, event) for the guard callback.
var preconditions = buildPreconditions(domain.Rules)

type ruleKey struct {
	src   string
	event string
}

func buildEvents(rules []domain.Rule) []loopfsm.EventDesc {
	type key struct {
		event string
		dst   string
	}
	grouped := make(map[key][]string)
	order := make([]key, 0)

	for _, r := range rules {
		k := key{event: r.Event(), dst: string(r.To)}
		if _, exists := grouped[k]; !exists {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], string(r.From))
	}

	out := make([]loopfsm.EventDesc, 0, len(order))
	for _, k := range order {
		out = append(out, loopfsm.EventDesc{
			Name: k.event,
			Src:  grouped[k],
			Dst:  k.dst,
		})
	}
	return out
}

func buildPreconditions(rules []domain.Rule) map[ruleKey]domain.Precondition {
	out := make(map[ruleKey]domain.Precondition, len(rules))
	for _, r := range rules {
		if r.Precondition != domain.PreconditionNone {
			out[ruleKey{src: string(r.From), event: r.Event()}] = r.Precondition
		}
	}
	return out
}

// guard cancels the event when the order passed as the first argument
// does not meet the rule's precondition.
func guard(_ context.Context, e *loopfsm.Event) {
	p, ok := preconditions[ruleKey{src: e.Src, event: e.Event}]
	if !ok {
		return
	}
	if len(e.Args) == 0 {
		e.Cancel(&domain.PreconditionError{Precondition: p})
		return
	}
	order, _ := e.Args[0].(domain.Order)
	if !p.Satisfied(order) {
		e.Cancel(&domain.PreconditionError{Precondition: p})
	}
}

// Validator implements domain.TransitionValidator using looplab/fsm.
// It creates a short-lived FSM instance per Apply call, initialized with
// the order's current status, since looplab/fsm tracks state internally.
type Validator struct{}

// New creates a new FSM-backed transition validator.
func New() *Validator {
	return &Validator{}
}

// Apply fires rule against the order's current status and returns the
// destination. It returns a *domain.TransitionError when the rule does not
// leave that status and a *domain.PreconditionError when the guard rejects it.
func (v *Validator) Apply(ctx context.Context, order domain.Order, rule domain.Rule) (domain.Status, error) {
	machine := loopfsm.NewFSM(string(order.Status), events, loopfsm.Callbacks{
		"before_event": guard,
	})

	if err := machine.Event(ctx, rule.Event(), order); err != nil {
		var canceled loopfsm.CanceledError
		if errors.As(err, &canceled) {
			var pre *domain.PreconditionError
			if errors.As(canceled.Err, &pre) {
				return "", pre
			}
			return "", err
		}

		var invalidEvent loopfsm.InvalidEventError
		var unknownEvent loopfsm.UnknownEventError
		var noTransition loopfsm.NoTransitionError
		if errors.As(err, &invalidEvent) || errors.As(err, &unknownEvent) || errors.As(err, &noTransition) {
			return "", &domain.TransitionError{
				Action:  rule.Action,
				Current: order.Status,
			}
		}
		return "", err
	}

	return domain.Status(machine.Current()), nil
}
