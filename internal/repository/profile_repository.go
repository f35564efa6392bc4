package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/campus-api/internal/models"
)

// ProfileRepository manages persistence for user profiles.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs a ProfileRepository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// FindByUserID fetches the profile owned by a user.
func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	const query = `SELECT id, user_id, full_name, email, role, department, class_id, created_at, updated_at
        FROM profiles WHERE user_id = $1`
	var profile models.Profile
	err := readWithRetry(ctx, func() error {
		return r.db.GetContext(ctx, &profile, query, userID)
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Create inserts a profile row.
func (r *ProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	const query = `INSERT INTO profiles (id, user_id, full_name, email, role, department, class_id, created_at, updated_at)
        VALUES (:id, :user_id, :full_name, :email, :role, :department, :class_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

// Update modifies the mutable profile fields, keyed by owner so a caller can
// never touch another user's profile.
func (r *ProfileRepository) Update(ctx context.Context, profile *models.Profile) (int64, error) {
	profile.UpdatedAt = time.Now().UTC()
	const query = `UPDATE profiles SET full_name = :full_name, department = :department, class_id = :class_id, updated_at = :updated_at
        WHERE user_id = :user_id`
	res, err := r.db.NamedExecContext(ctx, query, profile)
	if err != nil {
		return 0, fmt.Errorf("update profile: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update profile rows: %w", err)
	}
	return affected, nil
}
