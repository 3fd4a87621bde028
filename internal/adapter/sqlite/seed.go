package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/neomorfeo/fabflow/internal/domain"
)

// Fixtures is a set of platforms and profiles loaded into an empty
// database for local development.
type Fixtures struct {
	Platforms []domain.Platform
	Profiles  []domain.Profile
}

// DevFixtures has one profile per role and two platforms. User ids start
// at 1 so they are easy to pass as X-User-ID.
var DevFixtures = Fixtures{
	Platforms: []domain.Platform{
		{Code: "MT", CompanyName: "MicroTech"},
		{Code: "KI", CompanyName: "KI Fab"},
	},
	Profiles: []domain.Profile{
		{UserID: 1, Role: domain.RoleCustomer, CompanyName: "Acme", FullName: "Alex Customer"},
		{UserID: 2, Role: domain.RoleCurator, CompanyName: "Design Center", FullName: "Casey Curator"},
		{UserID: 3, Role: domain.RoleExecutor, CompanyName: "MicroTech", FullName: "Eli Executor"},
		{UserID: 4, Role: domain.RoleExecutor, CompanyName: "KI Fab", FullName: "Kim Executor"},
	},
}

// Seed upserts fixtures. It is safe to run more than once.
func Seed(ctx context.Context, db *sql.DB, f Fixtures) error {
	platforms := NewPlatformDirectory(db)
	for _, p := range f.Platforms {
		if err := platforms.Save(ctx, p); err != nil {
			return err
		}
	}

	profiles := NewProfileRepository(db)
	for _, p := range f.Profiles {
		if _, err := profiles.Save(ctx, p); err != nil {
			return fmt.Errorf("seeding user %d: %w", p.UserID, err)
		}
	}
	return nil
}
