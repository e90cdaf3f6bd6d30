package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/stocktrace/stocktrace-backend/pkg/database"
	"github.com/stocktrace/stocktrace-backend/pkg/errors"
)

// CachedUser is a locally synced copy of a user maintained from user events
type CachedUser struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	RoleName  string    `db:"role_name" json:"role_name"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// UserCacheRepository maintains the local user cache
type UserCacheRepository struct {
	db *database.DB
}

// NewUserCacheRepository creates a new user cache repository
func NewUserCacheRepository(db *database.DB) *UserCacheRepository {
	return &UserCacheRepository{db: db}
}

// Set upserts a cached user
func (r *UserCacheRepository) Set(ctx context.Context, user *CachedUser) error {
	query := `
		INSERT INTO user_cache (id, email, name, role_name, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			role_name = EXCLUDED.role_name,
			updated_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.Name, user.RoleName)
	return err
}

// Get gets a cached user by ID
func (r *UserCacheRepository) Get(ctx context.Context, id string) (*CachedUser, error) {
	var user CachedUser
	query := `SELECT * FROM user_cache WHERE id = $1`
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("user")
		}
		return nil, err
	}
	return &user, nil
}

// Delete removes a cached user. Missing rows are not an error; delete events
// can arrive after the row is already gone.
func (r *UserCacheRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM user_cache WHERE id = $1`, id)
	return err
}
