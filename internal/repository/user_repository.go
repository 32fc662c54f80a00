package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/avolkov/finance-tracker/internal/model"
)

// UserRepo persists user identity records.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// InsertUser stores a new user and returns the created record.  The unique
// index on email is the final arbiter of duplicates: a violation is mapped
// to ErrEmailExists even when a prior existence check passed.
func (r *UserRepo) InsertUser(ctx context.Context, email, passwordHash string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, created_at) VALUES (?,?,?)",
		email, passwordHash, now)
	if err != nil {
		if isDuplicateKey(err) {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return model.User{ID: uint64(id), Email: email, PasswordHash: passwordHash, CreatedAt: now}, nil
}

// FindUserByEmail fetches a user by normalized email.
func (r *UserRepo) FindUserByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,created_at FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// FindUserByID fetches a user by id.
func (r *UserRepo) FindUserByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,created_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return model.User{}, ErrNotFound
	}
	return u, err
}
