package pg

import (
	"context"
	"fmt"

	"github.com/itchan-dev/uniforum/shared/domain"
)

// MaxRoleAt is the highest role the user holds at the location. Every
// authenticated user is at least RoleUser. For LocationNone the highest role
// held anywhere is returned.
//
// Only memberships recorded at exactly (scope, location) count. Roles are not
// inherited down the organisational hierarchy, so a centre administrator
// moderates a course forum only if the identity provider also records a
// membership at that course. Propagating roles is the provider's job.
func (s *Storage) MaxRoleAt(ctx context.Context, userId domain.UserId, scope domain.Scope, location domain.LocationId) (domain.Role, error) {
	var role domain.Role
	var err error
	if location == domain.LocationNone {
		err = s.db.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(role), $2) FROM memberships WHERE user_id = $1",
			userId, domain.RoleUser,
		).Scan(&role)
	} else {
		err = s.db.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(role), $4) FROM memberships WHERE user_id = $1 AND scope = $2 AND location = $3",
			userId, scope, location, domain.RoleUser,
		).Scan(&role)
	}
	if err != nil {
		return domain.RoleUnknown, fmt.Errorf("failed to fetch role: %w", err)
	}
	return max(role, domain.RoleUser), nil
}

func (s *Storage) IsSystemAdmin(ctx context.Context, userId domain.UserId) (bool, error) {
	var admin bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM system_admins WHERE user_id = $1)", userId).Scan(&admin)
	if err != nil {
		return false, fmt.Errorf("failed to check admin status: %w", err)
	}
	return admin, nil
}

func (s *Storage) Memberships(ctx context.Context, userId domain.UserId) ([]domain.Membership, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT scope, location, role FROM memberships WHERE user_id = $1 ORDER BY scope, location",
		userId,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	defer rows.Close()

	var memberships []domain.Membership
	for rows.Next() {
		var m domain.Membership
		if err := rows.Scan(&m.Scope, &m.Location, &m.Role); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating memberships: %w", err)
	}
	return memberships, nil
}

// The writers below are used by the platform's provisioning and by tests.

func (s *Storage) SaveUser(ctx context.Context, userId domain.UserId, email string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email`,
		userId, email,
	)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (s *Storage) SaveMembership(ctx context.Context, userId domain.UserId, m domain.Membership) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memberships (user_id, scope, location, role) VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, scope, location) DO UPDATE SET role = EXCLUDED.role`,
		userId, m.Scope, m.Location, m.Role,
	)
	if err != nil {
		return fmt.Errorf("failed to save membership: %w", err)
	}
	return nil
}

func (s *Storage) SetSystemAdmin(ctx context.Context, userId domain.UserId, admin bool) error {
	query := "INSERT INTO system_admins (user_id) VALUES ($1) ON CONFLICT DO NOTHING"
	if !admin {
		query = "DELETE FROM system_admins WHERE user_id = $1"
	}
	if _, err := s.db.ExecContext(ctx, query, userId); err != nil {
		return fmt.Errorf("failed to set admin status: %w", err)
	}
	return nil
}
