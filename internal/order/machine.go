// Package order implements the port-rental order lifecycle: the
// transition table between order statuses, the role gating for each
// transition, and the service that executes transitions atomically
// against the store and the port registry.
package order

import (
	"time"

	"portshare-backend/internal/apperr"
	"portshare-backend/internal/model"
)

// Action is a named transition on a rental order.
type Action string

const (
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionSign     Action = "sign"
	ActionSchedule Action = "schedule"
	ActionStart    Action = "start"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
)

// Role classifies an actor relative to an order.
type Role int

const (
	RoleNone Role = iota
	RoleRequester
	RoleOwner
)

// Classify determines the actor's role on the order. Anyone who is
// neither party gets RoleNone and is refused every transition.
func Classify(o *model.RentalOrder, actorID string) Role {
	switch actorID {
	case o.RequesterID:
		return RoleRequester
	case o.OwnerID:
		return RoleOwner
	}
	return RoleNone
}

// Effect names the port-registry side effect a transition carries.
// Only transitions that change physical occupancy have one.
type Effect int

const (
	EffectNone Effect = iota
	// EffectReleasePort returns the order's port to available (when it
	// is reserved or occupied).
	EffectReleasePort
	// EffectOccupyPort assigns the port to the requester and bumps the
	// cabinet counter.
	EffectOccupyPort
)

// Outcome describes what Apply did to the order.
type Outcome struct {
	// Changed is false for idempotent no-ops (re-signing an already
	// signed contract). No note is written and nothing is saved.
	Changed bool
	Effect  Effect
}

var nonTerminal = []model.OrderStatus{
	model.OrderPendingApproval,
	model.OrderContractGenerated,
	model.OrderContractSigned,
	model.OrderInstallationScheduled,
	model.OrderInstallationInProgress,
}

// rule is one row of the transition table: which statuses the action
// is legal from and which roles may trigger it.
type rule struct {
	from    []model.OrderStatus
	allowed []Role
}

var rules = map[Action]rule{
	ActionApprove:  {from: []model.OrderStatus{model.OrderPendingApproval}, allowed: []Role{RoleOwner}},
	ActionReject:   {from: []model.OrderStatus{model.OrderPendingApproval}, allowed: []Role{RoleOwner}},
	ActionSign:     {from: []model.OrderStatus{model.OrderContractGenerated}, allowed: []Role{RoleRequester, RoleOwner}},
	ActionSchedule: {from: []model.OrderStatus{model.OrderContractSigned}, allowed: []Role{RoleRequester}},
	ActionStart:    {from: []model.OrderStatus{model.OrderInstallationScheduled}, allowed: []Role{RoleRequester}},
	ActionComplete: {from: []model.OrderStatus{model.OrderInstallationInProgress}, allowed: []Role{RoleRequester}},
	ActionCancel:   {from: nonTerminal, allowed: []Role{RoleRequester, RoleOwner}},
}

func contains[T comparable](xs []T, x T) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// Apply validates the transition against the table and mutates the
// order in place. It never touches the database; the service wraps it
// in the per-order transaction and performs the returned Effect.
func Apply(o *model.RentalOrder, action Action, role Role, now time.Time, scheduledDate *time.Time) (Outcome, error) {
	if role == RoleNone {
		return Outcome{}, apperr.Forbidden("not a party to order %s", o.ID)
	}

	r, ok := rules[action]
	if !ok {
		return Outcome{}, apperr.Validation("unknown action %q", action)
	}
	if !contains(r.allowed, role) {
		return Outcome{}, apperr.Forbidden("role not allowed to %s order %s", action, o.ID)
	}
	if !contains(r.from, o.Status) {
		return Outcome{}, apperr.InvalidTransition(string(action), string(o.Status))
	}

	switch action {
	case ActionApprove:
		o.Status = model.OrderContractGenerated
		return Outcome{Changed: true}, nil

	case ActionReject:
		o.Status = model.OrderRejected
		return Outcome{Changed: true, Effect: EffectReleasePort}, nil

	case ActionSign:
		if role == RoleRequester {
			if o.RequesterSigned {
				return Outcome{}, nil
			}
			o.RequesterSigned = true
		} else {
			if o.OwnerSigned {
				return Outcome{}, nil
			}
			o.OwnerSigned = true
		}
		if o.RequesterSigned && o.OwnerSigned {
			o.Status = model.OrderContractSigned
		}
		return Outcome{Changed: true}, nil

	case ActionSchedule:
		if scheduledDate == nil {
			return Outcome{}, apperr.Validation("scheduled date is required")
		}
		if !scheduledDate.After(now) {
			return Outcome{}, apperr.Validation("scheduled date must be in the future")
		}
		o.ScheduledDate = scheduledDate
		o.Status = model.OrderInstallationScheduled
		return Outcome{Changed: true}, nil

	case ActionStart:
		o.Status = model.OrderInstallationInProgress
		return Outcome{Changed: true}, nil

	case ActionComplete:
		completed := now
		o.CompletedDate = &completed
		o.Status = model.OrderCompleted
		return Outcome{Changed: true, Effect: EffectOccupyPort}, nil

	case ActionCancel:
		o.Status = model.OrderCancelled
		return Outcome{Changed: true, Effect: EffectReleasePort}, nil
	}

	return Outcome{}, apperr.Validation("unknown action %q", action)
}
