package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/neomorfeo/fabflow/internal/domain"
)

var (
	_ domain.ProfileRepository = (*ProfileRepository)(nil)
	_ domain.PlatformDirectory = (*PlatformDirectory)(nil)
)

// ProfileRepository implements domain.ProfileRepository using SQLite.
// It expects a database already migrated by New or NewFromDB.
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository wraps db.
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Save inserts the profile, or updates the one with the same user id, and
// returns it with its ID set.
func (r *ProfileRepository) Save(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	if !p.Role.Valid() {
		return domain.Profile{}, fmt.Errorf("saving profile: invalid role %q", p.Role)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, role, company_name, full_name)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
			role = excluded.role,
			company_name = excluded.company_name,
			full_name = excluded.full_name`,
		p.UserID, string(p.Role), p.CompanyName, p.FullName,
	)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("saving profile: %w", err)
	}
	return r.GetByUserID(ctx, p.UserID)
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID int64) (domain.Profile, error) {
	return scanProfile(r.db.QueryRowContext(ctx,
		`SELECT id, user_id, role, company_name, full_name FROM profiles WHERE user_id = ?`, userID,
	))
}

func (r *ProfileRepository) GetByID(ctx context.Context, id int64) (domain.Profile, error) {
	return scanProfile(r.db.QueryRowContext(ctx,
		`SELECT id, user_id, role, company_name, full_name FROM profiles WHERE id = ?`, id,
	))
}

func scanProfile(row scanner) (domain.Profile, error) {
	var p domain.Profile
	var role string
	if err := row.Scan(&p.ID, &p.UserID, &role, &p.CompanyName, &p.FullName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Profile{}, domain.ErrProfileNotFound
		}
		return domain.Profile{}, fmt.Errorf("scanning profile: %w", err)
	}
	p.Role = domain.Role(role)
	return p, nil
}

// PlatformDirectory implements domain.PlatformDirectory using SQLite.
type PlatformDirectory struct {
	db *sql.DB
}

// NewPlatformDirectory wraps db.
func NewPlatformDirectory(db *sql.DB) *PlatformDirectory {
	return &PlatformDirectory{db: db}
}

// Save inserts or renames a platform.
func (d *PlatformDirectory) Save(ctx context.Context, p domain.Platform) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO platforms (code, company_name) VALUES (?, ?)
		 ON CONFLICT (code) DO UPDATE SET company_name = excluded.company_name`,
		p.Code, p.CompanyName,
	)
	if err != nil {
		return fmt.Errorf("saving platform %q: %w", p.Code, err)
	}
	return nil
}

func (d *PlatformDirectory) GetByCode(ctx context.Context, code string) (domain.Platform, error) {
	return scanPlatform(d.db.QueryRowContext(ctx,
		`SELECT code, company_name FROM platforms WHERE code = ?`, code,
	))
}

func (d *PlatformDirectory) ForCompany(ctx context.Context, company string) (domain.Platform, error) {
	if company == "" {
		return domain.Platform{}, domain.ErrPlatformNotFound
	}
	return scanPlatform(d.db.QueryRowContext(ctx,
		`SELECT code, company_name FROM platforms WHERE company_name = ?`, company,
	))
}

func scanPlatform(row scanner) (domain.Platform, error) {
	var p domain.Platform
	if err := row.Scan(&p.Code, &p.CompanyName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Platform{}, domain.ErrPlatformNotFound
		}
		return domain.Platform{}, fmt.Errorf("scanning platform: %w", err)
	}
	return p, nil
}
