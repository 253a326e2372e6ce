package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bilancio/internal/auth"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/storage"
)

// Session is the result of a successful sign-in.
type Session struct {
	User      core.User
	Token     string
	ExpiresAt time.Time
}

// SignUp validates the input, hashes the password and stores the user.
func (s *FinanceService) SignUp(ctx context.Context, in core.SignUpInput) (core.User, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return core.User{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.store.CreateUser(ctx, core.User{Email: in.Email, Name: in.Name, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			s.audit.LogAuth(ctx, log.OpSignUp, "", ErrEmailTaken)
			return core.User{}, ErrEmailTaken
		}
		return core.User{}, err
	}

	s.audit.LogAuth(ctx, log.OpSignUp, u.ID, nil)
	return u, nil
}

// SignIn checks the credentials and issues a session token.
func (s *FinanceService) SignIn(ctx context.Context, email, password string) (Session, error) {
	in := core.SignUpInput{Email: email}
	in.Normalize()

	u, err := s.store.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.audit.LogAuth(ctx, log.OpSignIn, "", ErrInvalidCredentials)
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("get user: %w", err)
	}
	if err := auth.VerifyPassword(u.PasswordHash, password); err != nil {
		s.audit.LogAuth(ctx, log.OpSignIn, u.ID, ErrInvalidCredentials)
		return Session{}, ErrInvalidCredentials
	}

	token, expires, err := s.tokens.Issue(u.ID)
	if err != nil {
		return Session{}, err
	}
	s.audit.LogAuth(ctx, log.OpSignIn, u.ID, nil)
	return Session{User: u, Token: token, ExpiresAt: expires}, nil
}

// Authenticate resolves a session token to its user.
func (s *FinanceService) Authenticate(ctx context.Context, token string) (core.User, error) {
	if token == "" {
		return core.User{}, ErrUnauthorized
	}
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return core.User{}, ErrUnauthorized
	}
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.User{}, ErrUnauthorized
		}
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *FinanceService) SessionTTL() time.Duration {
	return s.tokens.TTL()
}

func (s *FinanceService) UserByEmail(ctx context.Context, email string) (core.User, error) {
	in := core.SignUpInput{Email: email}
	in.Normalize()
	return s.store.GetUserByEmail(ctx, in.Email)
}

func (s *FinanceService) ListUsers(ctx context.Context) ([]core.User, error) {
	return s.store.ListUsers(ctx)
}
