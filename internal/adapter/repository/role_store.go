package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cradle-gate/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS identity_roles (
		identity_id uuid PRIMARY KEY,
		role        text NULL CHECK (role IN ('institutional', 'retail', 'institution')),
		updated_at  timestamptz NOT NULL DEFAULT now()
	)`

const getRoleSQL = `
	SELECT COALESCE(role, '')
	FROM identity_roles
	WHERE identity_id = $1`

// The conflict branch only fires on a NULL role, so an existing role makes
// the statement return no row.
const setRoleIfAbsentSQL = `
	INSERT INTO identity_roles (identity_id, role, updated_at)
	VALUES ($1, $2, now())
	ON CONFLICT (identity_id) DO UPDATE
		SET role = EXCLUDED.role, updated_at = now()
		WHERE identity_roles.role IS NULL
	RETURNING role`

const migrateLegacyRolesSQL = `
	UPDATE identity_roles
	SET role = 'institutional', updated_at = now()
	WHERE role = 'institution'`

// PostgresRoleStore keeps roles in the identity_roles table.
// Implements domain.RoleStore.
type PostgresRoleStore struct {
	db     DatabaseIface
	logger *slog.Logger
}

// NewPostgresRoleStore creates a new PostgreSQL role store.
func NewPostgresRoleStore(db DatabaseIface, logger *slog.Logger) *PostgresRoleStore {
	return &PostgresRoleStore{
		db:     db,
		logger: logger.With("component", "role_store"),
	}
}

// EnsureSchema creates the identity_roles table when missing.
func (s *PostgresRoleStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create identity_roles: %w", err)
	}
	return nil
}

// GetRole returns the stored role of identityID, RoleNone when there is none.
func (s *PostgresRoleStore) GetRole(ctx context.Context, identityID string) (domain.Role, error) {
	id, err := parseIdentityID(identityID)
	if err != nil {
		return domain.RoleNone, err
	}

	var raw string
	err = s.db.QueryRow(ctx, getRoleSQL, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.RoleNone, nil
		}
		return domain.RoleNone, fmt.Errorf("%w: %w", domain.ErrRoleStoreUnavailable, err)
	}

	role, migrated, err := domain.ParseStoredRole(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "unrecognized stored role, treating as none", "user_id", id, "stored_role", raw)
		return domain.RoleNone, nil
	}
	if migrated {
		s.logger.WarnContext(ctx, "legacy role spelling in identity_roles", "user_id", id, "stored_role", raw)
	}
	return role, nil
}

// SetRoleIfAbsent inserts role, or fills a NULL role, in one statement.
func (s *PostgresRoleStore) SetRoleIfAbsent(ctx context.Context, identityID string, role domain.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidRole, role)
	}
	id, err := parseIdentityID(identityID)
	if err != nil {
		return err
	}

	var written string
	err = s.db.QueryRow(ctx, setRoleIfAbsentSQL, id, role.String()).Scan(&written)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrRoleAlreadySet
		}
		return fmt.Errorf("%w: %w", domain.ErrRoleStoreUnavailable, err)
	}
	return nil
}

// MigrateLegacyRoles rewrites the legacy role spelling in place and returns
// the number of rows changed.
func (s *PostgresRoleStore) MigrateLegacyRoles(ctx context.Context) (int64, error) {
	start := time.Now()
	tag, err := s.db.Exec(ctx, migrateLegacyRolesSQL)
	if err != nil {
		return 0, fmt.Errorf("failed to migrate legacy roles: %w", err)
	}
	if n := tag.RowsAffected(); n > 0 {
		s.logger.InfoContext(ctx, "migrated legacy role spelling", "rows", n, "duration", time.Since(start))
	}
	return tag.RowsAffected(), nil
}

// HealthCheck pings the database.
func (s *PostgresRoleStore) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.db.Ping(ctx)
}

func parseIdentityID(identityID string) (string, error) {
	id, err := uuid.Parse(identityID)
	if err != nil {
		return "", fmt.Errorf("%w: malformed identity id %q", domain.ErrIdentityNotFound, identityID)
	}
	return id.String(), nil
}
