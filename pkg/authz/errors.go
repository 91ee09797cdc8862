package authz

import "errors"

// Domain error taxonomy shared by the registry, roles, templates and audit
// modules. Validation-shaped errors are expected outcomes the HTTP layer maps
// to 4xx responses; ErrCycleDetected indicates corrupted hierarchy data and
// is surfaced as a server-side fault.
var (
	// ErrDuplicateKey indicates a permission/role/template name collision on create.
	ErrDuplicateKey = errors.New("authz: duplicate key")

	// ErrImmutable indicates an attempted mutation of a system-flagged entity
	// or any update/delete on an audit log entry.
	ErrImmutable = errors.New("authz: immutable entity")

	// ErrNotFound indicates a referenced role/permission/template/user does not exist.
	ErrNotFound = errors.New("authz: not found")

	// ErrInvalidTarget indicates a template applied to an unsupported target type.
	ErrInvalidTarget = errors.New("authz: invalid target")

	// ErrCycleDetected indicates the role hierarchy contains a cycle.
	ErrCycleDetected = errors.New("authz: cycle detected in role hierarchy")

	// ErrConflict indicates a deletion blocked by a referential constraint.
	ErrConflict = errors.New("authz: conflict")
)
