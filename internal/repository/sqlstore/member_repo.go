package sqlstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"alcyxob/fitness-log/internal/domain"
	"alcyxob/fitness-log/internal/repository"
)

const memberColumns = `id, username, first_name, last_name, email, image_url, bio, location, password_hash, created_at, updated_at`

// sqlMemberRepository implements repository.MemberRepository.
type sqlMemberRepository struct {
	db *sqlx.DB
}

// NewMemberRepository creates a member repository backed by db.
func NewMemberRepository(db *sqlx.DB) repository.MemberRepository {
	return &sqlMemberRepository{db: db}
}

// Create inserts a new member. Uniqueness of username and email is enforced by the schema.
func (r *sqlMemberRepository) Create(ctx context.Context, member *domain.Member) error {
	if member.Username == "" || member.Email == "" || member.PasswordHash == "" {
		return errors.New("member username, email, and password hash are required")
	}
	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	member.CreatedAt = now
	member.UpdatedAt = now

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO members (`+memberColumns+`)
		VALUES (:id, :username, :first_name, :last_name, :email, :image_url, :bio, :location, :password_hash, :created_at, :updated_at)`,
		member)
	return mapError(err)
}

// GetByID retrieves a member by id.
func (r *sqlMemberRepository) GetByID(ctx context.Context, id string) (*domain.Member, error) {
	var member domain.Member
	err := r.db.GetContext(ctx, &member, r.db.Rebind(`SELECT `+memberColumns+` FROM members WHERE id = ?`), id)
	if err != nil {
		return nil, mapError(err)
	}
	return &member, nil
}

// GetByUsername retrieves a member by exact username.
func (r *sqlMemberRepository) GetByUsername(ctx context.Context, username string) (*domain.Member, error) {
	var member domain.Member
	err := r.db.GetContext(ctx, &member, r.db.Rebind(`SELECT `+memberColumns+` FROM members WHERE username = ?`), username)
	if err != nil {
		return nil, mapError(err)
	}
	return &member, nil
}

// Update overwrites the mutable columns of an existing member.
func (r *sqlMemberRepository) Update(ctx context.Context, member *domain.Member) error {
	if member.ID == "" {
		return errors.New("member ID is required for update")
	}
	member.UpdatedAt = time.Now().UTC()

	result, err := r.db.NamedExecContext(ctx, `
		UPDATE members SET
			username = :username,
			first_name = :first_name,
			last_name = :last_name,
			email = :email,
			image_url = :image_url,
			bio = :bio,
			location = :location,
			password_hash = :password_hash,
			updated_at = :updated_at
		WHERE id = :id`, member)
	if err != nil {
		return mapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes the member, its workouts and their exercise links in one transaction.
func (r *sqlMemberRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`
		DELETE FROM workout_exercises
		WHERE workout_id IN (SELECT id FROM workouts WHERE member_id = ?)`), id); err != nil {
		return mapError(err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM workouts WHERE member_id = ?`), id); err != nil {
		return mapError(err)
	}
	result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM members WHERE id = ?`), id)
	if err != nil {
		return mapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return tx.Commit()
}
