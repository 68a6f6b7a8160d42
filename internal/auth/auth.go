// Package auth covers admin credential checks and JWT issuance. The
// ledger itself never sees credentials; it only receives the actor id
// the middleware extracted.
package auth

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/Spok95/atk-inventory/internal/domain/users"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*users.User, error)
	CreateUser(ctx context.Context, u users.User) (*users.User, error)
}

type Service struct {
	store  UserStore
	secret string
}

func New(store UserStore, secret string) *Service {
	return &Service{store: store, secret: secret}
}

func (s *Service) Register(ctx context.Context, username, password, fullName string) (*users.User, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	existing, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.New("username already taken")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.store.CreateUser(ctx, users.User{
		Username:     username,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(fullName),
		Role:         users.RoleAdmin,
	})
}

// Login verifies the password and returns a signed token plus the user.
func (s *Service) Login(ctx context.Context, username, password string) (string, *users.User, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	u, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return "", nil, err
	}
	if u == nil {
		return "", nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err := GenerateToken(s.secret, u)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}
