// Package policy is the single authorization decision point for the service.
//
// Every endpoint that touches a scoped resource asks this package instead of
// branching on the role inline. Keeping the rules in one pure function means
// they are tested in one place and cannot drift between handlers.
//
// Authorize performs no I/O and never panics: a denial is a value, not an
// error. The service layer converts a deny into apperror.Forbidden.
package policy

import "github.com/kalendar-app/kalendar/internal/model"

// Identity is the authenticated caller as resolved by the identity context
// (internal/auth). The policy trusts this pair completely — verifying the
// credential it came from is not its job.
type Identity struct {
	UserID int64
	Role   string
}

// IsAdmin reports whether the actor holds the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == model.RoleAdmin
}

// Action enumerates the operations the policy can rule on.
type Action int

const (
	// Event operations. Target.OwnerID is the calendar the events belong to.
	ActionReadEvents Action = iota
	ActionCreateEvent
	ActionUpdateEvent
	ActionDeleteEvent
	ActionExportEvents

	// Account-management operations. Target.UserID is the account acted on;
	// for ActionListUsers and ActionCreateUser there is no specific target.
	ActionListUsers
	ActionCreateUser
	ActionDeleteUser
)

// Target identifies what an action is aimed at. OwnerID is set for event
// actions, UserID for account actions; the unused half stays zero.
type Target struct {
	OwnerID int64
	UserID  int64
}

// EventTarget builds a Target for an event action scoped to the given owner.
func EventTarget(ownerID int64) Target { return Target{OwnerID: ownerID} }

// UserTarget builds a Target for an account action aimed at the given user.
func UserTarget(userID int64) Target { return Target{UserID: userID} }

// Decision is the outcome of an authorization check. Reason is only set on
// a deny and is safe to surface to the caller.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

// Authorize decides whether actor may perform action on target.
//
// Rules, in priority order:
//
//  1. Self-protection: nobody deletes their own account through the account
//     management path, admins included. Deleting the last admin's own
//     account would lock the deployment out.
//  2. Admin override: admins may perform any other action on any target.
//  3. Self-scope: user-role actors may only touch their own calendar and are
//     never allowed account management.
func Authorize(actor Identity, action Action, target Target) Decision {
	if action == ActionDeleteUser && target.UserID == actor.UserID {
		return deny("cannot delete own account")
	}

	if actor.IsAdmin() {
		return allow()
	}

	switch action {
	case ActionReadEvents, ActionCreateEvent, ActionUpdateEvent,
		ActionDeleteEvent, ActionExportEvents:
		if target.OwnerID == actor.UserID {
			return allow()
		}
		return deny("access denied")
	default:
		// ActionListUsers, ActionCreateUser, ActionDeleteUser
		return deny("admin access required")
	}
}
