package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUserExists signals the username is already taken.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials indicates a login failure.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUserNotFound signals a lookup for a user id that does not exist.
	ErrUserNotFound = errors.New("user not found")

	dummyPasswordHash = []byte("$2a$10$CwTycUXWue0Thq9StjUM0uJ8n4VWeNseyX2fA9DE.D7su7J6iYGTC")
)

// Store provides persistence backed by Postgres.
type Store struct {
	db *sql.DB
}

// New sets up a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateUser registers a new user and returns its id.
func (s *Store) CreateUser(ctx context.Context, username, password string) (int64, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return 0, fmt.Errorf("username and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	var userID int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING id
	`, username, hash).Scan(&userID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrUserExists
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	return userID, nil
}

// Authenticate validates credentials and returns the user's id.
func (s *Store) Authenticate(ctx context.Context, username, password string) (int64, error) {
	var (
		userID int64
		hash   []byte
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, password_hash
		FROM users
		WHERE username = $1
	`, username).Scan(&userID, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(password))
			return 0, ErrInvalidCredentials
		}
		return 0, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return 0, ErrInvalidCredentials
	}

	return userID, nil
}

// UserExists reports whether the user id is registered.
func (s *Store) UserExists(ctx context.Context, id int64) (bool, error) {
	var found int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id
		FROM users
		WHERE id = $1
	`, id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup user: %w", err)
	}
	return true, nil
}

// UserIDByUsername resolves a username to its id.
func (s *Store) UserIDByUsername(ctx context.Context, username string) (int64, error) {
	var userID int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id
		FROM users
		WHERE username = $1
	`, username).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("lookup user: %w", err)
	}
	return userID, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
