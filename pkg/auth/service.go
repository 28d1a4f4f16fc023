package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/telemetryhq/fleethub/pkg/metadata"
)

// ErrInvalidCredentials is returned for unknown emails and wrong passwords
// alike; the two cases are indistinguishable to the caller.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service verifies credentials and issues access tokens.
type Service struct {
	users  metadata.UserRepository
	tokens *TokenProvider
}

// NewService creates the auth service.
func NewService(users metadata.UserRepository, tokens *TokenProvider) *Service {
	return &Service{users: users, tokens: tokens}
}

// Login verifies the password and returns a signed access token plus the
// user. Failed attempts are counted; a successful login resets the counter.
func (s *Service) Login(ctx context.Context, email, password string) (string, *metadata.User, error) {
	user, hash, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("auth: lookup user: %w", err)
	}
	if user == nil || hash == "" {
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		_ = s.users.RecordLogin(ctx, user.ID, false)
		return "", nil, ErrInvalidCredentials
	}

	if err := s.users.RecordLogin(ctx, user.ID, true); err != nil {
		return "", nil, fmt.Errorf("auth: record login: %w", err)
	}

	token, err := s.tokens.Issue(user.ID, user.TenantID, user.Authority, user.Email)
	if err != nil {
		return "", nil, fmt.Errorf("auth: sign token: %w", err)
	}
	return token, user, nil
}

// HashPassword produces a bcrypt hash for seeding and user creation.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
