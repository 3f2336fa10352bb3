// Package rbac resolves which capabilities a staff member holds. It gates
// the privileged portal actions and the admin lifecycle endpoints.
package rbac

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Checker is the capability predicate injected into handlers and services.
type Checker interface {
	HasCapability(ctx context.Context, actorID int64, capability string) (bool, error)
}

// Service resolves capabilities from the roles/permissions tables.
type Service struct {
	pool *pgxpool.Pool
}

// NewService constructs a Service backed by the provided pool.
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// EffectivePermissions returns the union of permissions granted to the user
// through role assignments.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT p.name
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		JOIN user_roles ur ON ur.role_id = rp.role_id
		WHERE ur.user_id = $1
		ORDER BY p.name
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		perms = append(perms, name)
	}
	return perms, rows.Err()
}

// HasCapability reports whether the actor holds the named capability.
func (s *Service) HasCapability(ctx context.Context, actorID int64, capability string) (bool, error) {
	capability = normalize(capability)
	if capability == "" || actorID <= 0 {
		return false, nil
	}
	var granted bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM permissions p
			JOIN role_permissions rp ON rp.permission_id = p.id
			JOIN user_roles ur ON ur.role_id = rp.role_id
			WHERE ur.user_id = $1 AND p.name = $2
		)
	`, actorID, capability).Scan(&granted)
	if err != nil {
		return false, err
	}
	return granted, nil
}

func normalize(perm string) string {
	return strings.ToLower(strings.TrimSpace(perm))
}
