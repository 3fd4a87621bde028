package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/neomorfeo/fabflow/internal/domain"
)

// actors turns an external user id into a domain.Actor.
type actors struct {
	profiles  domain.ProfileRepository
	platforms domain.PlatformDirectory
}

// resolve loads the user's profile and, for executors, the platform their
// company operates. An executor whose company runs no platform gets an
// empty Platform and fails every platform check.
func (a actors) resolve(ctx context.Context, userID int64) (domain.Actor, error) {
	profile, err := a.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return domain.Actor{}, err
		}
		return domain.Actor{}, fmt.Errorf("loading profile for user %d: %w", userID, err)
	}

	actor := domain.Actor{Profile: profile}
	if profile.Role != domain.RoleExecutor {
		return actor, nil
	}

	platform, err := a.platforms.ForCompany(ctx, profile.CompanyName)
	switch {
	case err == nil:
		actor.Platform = platform.Code
	case errors.Is(err, domain.ErrPlatformNotFound):
	default:
		return domain.Actor{}, fmt.Errorf("resolving platform for %q: %w", profile.CompanyName, err)
	}
	return actor, nil
}
