package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/neomorfeo/fabflow/internal/domain"
)

// Outcome classifies a successful Apply.
type Outcome string

const (
	OutcomeAdvanced          Outcome = "advanced"
	OutcomeReverted          Outcome = "reverted"
	OutcomeNoop              Outcome = "noop"
	OutcomePreconditionUnmet Outcome = "precondition_unmet"
)

// Command is a requested action. Expect, when set, is the status the
// caller believes the order is in. Generic actions must carry it, otherwise
// a retried advance would move the order a second stage.
type Command struct {
	Action domain.Action
	Expect domain.Status
}

// Result describes what Apply did to the order.
type Result struct {
	Order    domain.Order
	Outcome  Outcome
	Previous domain.Status
	// Reason and FileMissing are set on OutcomePreconditionUnmet.
	Reason      string
	FileMissing bool
}

// WorkflowEngine moves orders through the status table on behalf of actors.
type WorkflowEngine struct {
	orders    domain.OrderRepository
	actors    actors
	validator domain.TransitionValidator
	notifier  domain.Notifier
	logger    *slog.Logger
	now       func() time.Time
}

// NewWorkflowEngine creates an engine with the given adapters. notifier may
// be nil.
func NewWorkflowEngine(
	orders domain.OrderRepository,
	profiles domain.ProfileRepository,
	platforms domain.PlatformDirectory,
	validator domain.TransitionValidator,
	notifier domain.Notifier,
	logger *slog.Logger,
) *WorkflowEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkflowEngine{
		orders:    orders,
		actors:    actors{profiles: profiles, platforms: platforms},
		validator: validator,
		notifier:  notifier,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Apply performs cmd on the order as the user. The stored order is left
// untouched on any error and on soft rejects.
func (e *WorkflowEngine) Apply(ctx context.Context, userID, orderID int64, cmd Command) (Result, error) {
	if cmd.Action.Generic() && cmd.Expect == "" {
		return Result{}, domain.ErrExpectedStatusRequired
	}

	actor, err := e.actors.resolve(ctx, userID)
	if err != nil {
		return Result{}, err
	}

	order, err := e.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("loading order %d: %w", orderID, err)
	}

	if !domain.CanEdit(actor, order) {
		return Result{}, &domain.AccessDeniedError{Reason: domain.DenialNotYourOrder}
	}

	current := order.Status
	noop := Result{Order: order, Outcome: OutcomeNoop, Previous: current}

	if cmd.Expect != "" && cmd.Expect != current {
		// A retry of a move that already landed.
		if r, ok, found := domain.Resolve(cmd.Expect, cmd.Action, actor.Role); ok && found && r.To == current {
			return noop, nil
		}
		return Result{}, refuse(actor, order, cmd.Action)
	}

	rule, ok, found := domain.Resolve(current, cmd.Action, actor.Role)
	switch {
	case !ok:
		if domain.SatisfiedBy(current, cmd.Action, actor.Role) {
			return noop, nil
		}
		return Result{}, refuse(actor, order, cmd.Action)
	case !found:
		return Result{}, &domain.AccessDeniedError{Reason: domain.DenialWrongStage, Role: actor.Role, Status: current}
	}

	next, err := e.validator.Apply(ctx, order, rule)
	if err != nil {
		var pre *domain.PreconditionError
		if errors.As(err, &pre) {
			e.logger.InfoContext(ctx, "transition rejected",
				"order_id", order.ID, "action", cmd.Action, "reason", pre.Precondition.Reason())
			return Result{
				Order:       order,
				Outcome:     OutcomePreconditionUnmet,
				Previous:    current,
				Reason:      pre.Precondition.Reason(),
				FileMissing: pre.Precondition.FileMissing(),
			}, nil
		}
		return Result{}, err
	}

	order.Status = next
	order.Paid = paidAfter(rule, order.Paid)
	order.UpdatedAt = e.now()

	saved, err := e.orders.Update(ctx, order)
	if err != nil {
		return Result{}, fmt.Errorf("saving order %d: %w", order.ID, err)
	}

	outcome := OutcomeAdvanced
	if rule.Direction == domain.Backward {
		outcome = OutcomeReverted
	}

	if current != saved.Status {
		e.notify(ctx, domain.StatusChanged{
			OrderID:     saved.ID,
			OrderNumber: saved.Number,
			From:        current,
			To:          saved.Status,
			ActorID:     actor.ID,
			ActorRole:   actor.Role,
			OccurredAt:  saved.UpdatedAt,
		})
	}

	return Result{Order: saved, Outcome: outcome, Previous: current}, nil
}

func (e *WorkflowEngine) notify(ctx context.Context, event domain.StatusChanged) {
	e.logger.InfoContext(ctx, "order status changed",
		"order_id", event.OrderID, "from", event.From, "to", event.To, "actor_id", event.ActorID)

	if e.notifier == nil {
		return
	}
	if err := e.notifier.OnStatusChanged(ctx, event); err != nil {
		e.logger.WarnContext(ctx, "status change notification failed",
			"order_id", event.OrderID, "error", err)
	}
}

// refuse picks the error for an action that cannot run at the order's
// status. An actor that neither owns the status nor holds a rule for the
// action there is at the wrong stage; anyone else asked for an invalid move.
func refuse(actor domain.Actor, order domain.Order, action domain.Action) error {
	if _, _, found := domain.Resolve(order.Status, action, actor.Role); !found && !domain.CanActOnStatus(actor, order) {
		return &domain.AccessDeniedError{Reason: domain.DenialWrongStage, Role: actor.Role, Status: order.Status}
	}
	return &domain.TransitionError{Action: action, Current: order.Status}
}

// paidAfter tracks the payment flag across the payment phase.
func paidAfter(rule domain.Rule, paid bool) bool {
	switch rule.Action {
	case domain.ActionMarkPaid:
		return true
	case domain.ActionRejectPayment, domain.ActionCancelPayment:
		return false
	}
	return paid
}
