package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kbediako/examgate/internal/store"
)

// AdminRepository provides PostgreSQL-backed storage for management-panel
// users, their OTP codes and their login sessions.
type AdminRepository struct {
	pool *Pool
}

// NewAdminRepository creates an admin repository.
func NewAdminRepository(pool *Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

// CreateAdmin inserts a new admin user.
func (r *AdminRepository) CreateAdmin(ctx context.Context, a *store.Admin) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Role == "" {
		a.Role = "admin"
	}
	query := `
		INSERT INTO admins (id, username, email, password_hash, full_name, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query,
		a.ID, a.Username, a.Email, a.PasswordHash, a.FullName, a.Role, a.IsActive,
	).Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

const adminColumns = "id, username, email, password_hash, full_name, role, is_active, last_login, created_at"

func scanAdmin(row rowScanner) (*store.Admin, error) {
	var a store.Admin
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash,
		&a.FullName, &a.Role, &a.IsActive, &a.LastLogin, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAdminByUsername retrieves an active admin by username.
func (r *AdminRepository) GetAdminByUsername(ctx context.Context, username string) (*store.Admin, error) {
	query := "SELECT " + adminColumns + " FROM admins WHERE username = $1 AND is_active"
	a, err := scanAdmin(r.pool.QueryRow(ctx, query, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return a, nil
}

// GetAdminByEmail retrieves an active admin by email.
func (r *AdminRepository) GetAdminByEmail(ctx context.Context, email string) (*store.Admin, error) {
	query := "SELECT " + adminColumns + " FROM admins WHERE email = $1 AND is_active"
	a, err := scanAdmin(r.pool.QueryRow(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get admin by email: %w", err)
	}
	return a, nil
}

// TouchLastLogin records a successful login.
func (r *AdminRepository) TouchLastLogin(ctx context.Context, adminID string) error {
	_, err := r.pool.Exec(ctx, "UPDATE admins SET last_login = NOW() WHERE id = $1", adminID)
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}

// CreateOTP inserts a one-time code.
func (r *AdminRepository) CreateOTP(ctx context.Context, otp *store.OTPCode) error {
	query := `
		INSERT INTO otp_codes (email, code, purpose, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query, otp.Email, otp.Code, otp.Purpose, otp.ExpiresAt).
		Scan(&otp.ID, &otp.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert otp: %w", err)
	}
	return nil
}

// ConsumeOTP marks a matching unexpired, unused code as used. Returns
// ErrNotFound when no such code exists; each code is single-use.
func (r *AdminRepository) ConsumeOTP(ctx context.Context, email, code, purpose string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE otp_codes
		SET used = TRUE
		WHERE id = (
			SELECT id FROM otp_codes
			WHERE email = $1 AND code = $2 AND purpose = $3
			  AND NOT used AND expires_at > NOW()
			ORDER BY created_at DESC
			LIMIT 1
		)
	`, email, code, purpose)
	if err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}
	return requireRow(result)
}

// SaveSession stores an admin login session.
func (r *AdminRepository) SaveSession(ctx context.Context, id, adminID string, createdAt, expiresAt time.Time) error {
	query := `
		INSERT INTO admin_sessions (id, admin_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			admin_id = EXCLUDED.admin_id,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at
	`
	_, err := r.pool.Exec(ctx, query, id, adminID, createdAt, expiresAt)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// GetSessionAdmin returns the admin id and stored lifetime of an unexpired
// session, or ErrNotFound. Callers must honor the stored expiry.
func (r *AdminRepository) GetSessionAdmin(ctx context.Context, sessionID string) (string, time.Time, time.Time, error) {
	var (
		adminID              string
		createdAt, expiresAt time.Time
	)
	err := r.pool.QueryRow(ctx,
		"SELECT admin_id, created_at, expires_at FROM admin_sessions WHERE id = $1 AND expires_at > NOW()", sessionID).
		Scan(&adminID, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, time.Time{}, store.ErrNotFound
	}
	if err != nil {
		return "", time.Time{}, time.Time{}, fmt.Errorf("get session: %w", err)
	}
	return adminID, createdAt, expiresAt, nil
}

// DeleteSession removes a session.
func (r *AdminRepository) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM admin_sessions WHERE id = $1", sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions and returns the count
// deleted.
func (r *AdminRepository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	result, err := r.pool.Exec(ctx, "DELETE FROM admin_sessions WHERE expires_at <= NOW()")
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
