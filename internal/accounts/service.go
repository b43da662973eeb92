// Package accounts wraps user registration and login for the HTTP boundary.
package accounts

import (
	"context"
	"fmt"
)

// UserStore is the persistence surface accounts need.
type UserStore interface {
	CreateUser(ctx context.Context, username, password string) (int64, error)
	Authenticate(ctx context.Context, username, password string) (int64, error)
}

// TokenIssuer mints session tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID int64) (string, error)
}

// Service exposes signup and login.
type Service struct {
	users  UserStore
	tokens TokenIssuer
}

// New constructs an account Service.
func New(users UserStore, tokens TokenIssuer) *Service {
	return &Service{users: users, tokens: tokens}
}

// Signup registers a new user and returns its id.
func (s *Service) Signup(ctx context.Context, username, password string) (int64, error) {
	return s.users.CreateUser(ctx, username, password)
}

// Login validates credentials and returns a session token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	userID, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}

	token, err := s.tokens.Issue(userID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}
