package handlers

import (
	"errors"

	"medgate/pkg/authz"

	"github.com/danielgtaylor/huma/v2"
)

// HumaError maps domain errors onto HTTP status errors. Validation-shaped
// errors surface as client errors; CycleDetected indicates data corruption
// and surfaces as a server fault.
func HumaError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, authz.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, authz.ErrDuplicateKey):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, authz.ErrConflict):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, authz.ErrImmutable):
		return huma.Error403Forbidden(err.Error())
	case errors.Is(err, authz.ErrInvalidTarget):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, authz.ErrCycleDetected):
		return huma.Error500InternalServerError(err.Error())
	default:
		return err
	}
}
