package http

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/fabflow/internal/domain"
)

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	if errors.Is(err, domain.ErrProfileNotFound) {
		return huma.Error403Forbidden("no profile for this user")
	}

	var denied *domain.AccessDeniedError
	if errors.As(err, &denied) {
		return huma.Error403Forbidden(denied.Error())
	}

	if errors.Is(err, domain.ErrOrderNotFound) {
		return huma.Error404NotFound("order not found")
	}

	if errors.Is(err, domain.ErrPlatformNotFound) {
		return huma.Error404NotFound("platform not found")
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error400BadRequest(trErr.Error())
	}

	if errors.Is(err, domain.ErrExpectedStatusRequired) {
		return huma.Error422UnprocessableEntity(err.Error())
	}

	if errors.Is(err, domain.ErrConcurrentUpdate) {
		return huma.Error409Conflict("order was modified concurrently, reload and retry")
	}

	return huma.Error500InternalServerError("internal server error")
}
