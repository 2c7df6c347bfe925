package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dharsanguruparan/LinguaDrop/internal/fault"
	"github.com/dharsanguruparan/LinguaDrop/internal/model"
)

// UserRepository wraps account SQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository constructs a repository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts an account row.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	user.CreatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (username, password_hash, company_name, email, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, user.Username, user.PasswordHash, user.CompanyName, user.Email, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByUsername returns the account for username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	row := r.pool.QueryRow(ctx, `
		SELECT username, password_hash, company_name, email, created_at
		FROM users WHERE username=$1
	`, username)
	if err := row.Scan(&user.Username, &user.PasswordHash, &user.CompanyName, &user.Email, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.New(fault.NotFound, "user not found")
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &user, nil
}
