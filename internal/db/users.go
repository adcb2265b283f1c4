package db

import (
	"context"
	"fmt"
	"time"
)

// User is a dashboard account row. Only the login contract touches this
// table; alert data never persists here.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// GetUserByUsername fetches one user for credential verification.
func (d *DB) GetUserByUsername(ctx context.Context, username string) (User, error) {
	var u User
	query := `SELECT id, username, password_hash, created_at FROM users WHERE username = $1`
	err := d.Pool.QueryRow(ctx, query, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return User{}, fmt.Errorf("failed to get user %s: %w", username, err)
	}
	return u, nil
}

// CreateUser inserts a new account with an already-hashed password.
func (d *DB) CreateUser(ctx context.Context, username, passwordHash string) error {
	query := `INSERT INTO users (username, password_hash, created_at) VALUES ($1, $2, $3)`
	if _, err := d.Pool.Exec(ctx, query, username, passwordHash, time.Now()); err != nil {
		return fmt.Errorf("failed to create user %s: %w", username, err)
	}
	return nil
}
