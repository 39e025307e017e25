// Package domain provides shared domain-level sentinel errors.
//
// Authorization denials and business-invariant denials are distinct
// sentinels so callers, tests, and logs can always tell the two layers
// apart, even though both ultimately deny the operation.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates a length or format invariant was violated.
var ErrValidation = errors.New("validation failed")

// ErrInvalidState indicates a workflow transition was attempted from a
// status that does not allow it (e.g. editing a non-pending request).
var ErrInvalidState = errors.New("invalid state for this operation")

// ErrAlreadyProcessed indicates a duplicate respond attempt on a request
// that was already accepted or declined.
var ErrAlreadyProcessed = errors.New("request already processed")

// ErrUniqueViolation indicates an insert or update collided with an
// existing record on a unique column (e.g. a duplicate email).
var ErrUniqueViolation = errors.New("already exists")

// Authorization denials, produced by the access decision pipeline.
var (
	// ErrUnauthenticated indicates no valid principal could be resolved.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInsufficientRole indicates the principal's role is not in the
	// operation's allowed set.
	ErrInsufficientRole = errors.New("insufficient role")

	// ErrWrongTenant indicates the principal acted outside its own
	// company scope.
	ErrWrongTenant = errors.New("wrong company scope")

	// ErrWrongTenantType indicates the acting company's type may not
	// perform the operation.
	ErrWrongTenantType = errors.New("wrong company type")
)

// Business-invariant denials, produced by the role-hierarchy guard.
var (
	// ErrManagerCannotTouchAdmin denies a manager viewing, editing, or
	// deleting an admin account.
	ErrManagerCannotTouchAdmin = errors.New("managers cannot act on admin accounts")

	// ErrOnlyAdminMayDemote denies a non-admin demoting or deleting an admin.
	ErrOnlyAdminMayDemote = errors.New("only an admin may demote or delete an admin")

	// ErrLastAdminProtected denies removing or demoting a company's last admin.
	ErrLastAdminProtected = errors.New("the last admin of a company is protected")

	// ErrCannotDeleteSelf denies a user deleting their own account.
	ErrCannotDeleteSelf = errors.New("cannot delete your own account")
)
