package user

import "github.com/sesbridge/sesbridge/internal/domain"

// Mutation describes a proposed change to a target user: either a role
// change, a deletion, or both fields zero for a plain field edit.
type Mutation struct {
	NewRole Role // empty means the role is unchanged
	Delete  bool
}

// IsAdminDemotion reports whether the mutation would move an admin user
// away from the admin role, or delete an admin user outright. Such
// mutations are additionally subject to last-admin protection, which is
// enforced atomically at the store layer.
func (m Mutation) IsAdminDemotion(target *User) bool {
	if target.Role != RoleAdmin {
		return false
	}
	if m.Delete {
		return true
	}
	return m.NewRole != "" && m.NewRole != RoleAdmin
}

// CheckMutation applies the role-hierarchy rules that depend only on the
// acting principal and the target user, in fixed order:
//
//  1. a manager may never act on an admin account
//  2. a user may never delete their own account
//  3. demoting or deleting an admin requires the admin role
//
// It runs in addition to the access decision pipeline: the pipeline decides
// whether the principal may touch this company's user list at all, this
// guard decides whether it may touch this specific user in this specific
// way. The companion last-admin check (exactly one admin left) needs a live
// count and lives in the store write itself.
func CheckMutation(acting *Principal, target *User, change Mutation) error {
	if acting.Role == RoleManager && target.Role == RoleAdmin {
		return domain.ErrManagerCannotTouchAdmin
	}
	if change.Delete && acting.UserID == target.ID {
		return domain.ErrCannotDeleteSelf
	}
	if change.IsAdminDemotion(target) && acting.Role != RoleAdmin {
		return domain.ErrOnlyAdminMayDemote
	}
	return nil
}

// CheckView applies the hierarchy rule for reads: a manager may not view
// admin accounts. Viewing yourself is always allowed.
func CheckView(acting *Principal, target *User) error {
	if acting.UserID == target.ID {
		return nil
	}
	if acting.Role == RoleManager && target.Role == RoleAdmin {
		return domain.ErrManagerCannotTouchAdmin
	}
	return nil
}
