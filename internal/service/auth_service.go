package service

import (
	"context"
	"strings"
	"time"

	"github.com/esperluet/cv-smarter/internal/model"
	appErr "github.com/esperluet/cv-smarter/internal/pkg/errors"
	"github.com/esperluet/cv-smarter/internal/pkg/jwt"
	"github.com/esperluet/cv-smarter/internal/pkg/password"
	"github.com/esperluet/cv-smarter/internal/repo"
)

const minPasswordLength = 8

type AuthService struct {
	users     *repo.UserRepo
	jwtSecret []byte
	jwtTTL    time.Duration
}

func NewAuthService(users *repo.UserRepo, secret []byte, ttl time.Duration) *AuthService {
	return &AuthService{users: users, jwtSecret: secret, jwtTTL: ttl}
}

// Register creates an account and returns the user with a fresh token.
func (s *AuthService) Register(ctx context.Context, email, plainPassword string) (*model.User, string, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", appErr.ErrInvalid
	}
	if len(plainPassword) < minPasswordLength {
		return nil, "", appErr.ErrInvalid
	}
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return nil, "", err
	}
	now := time.Now().Unix()
	user := &model.User{
		ID:           newID(),
		Email:        email,
		PasswordHash: hash,
		Ctime:        now,
		Mtime:        now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}
	return s.issueToken(user)
}

// Login verifies credentials. Lookup and password failures both map to
// ErrUnauthorized so the response does not reveal which one failed.
func (s *AuthService) Login(ctx context.Context, email, plainPassword string) (*model.User, string, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, "", appErr.ErrUnauthorized
	}
	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		return nil, "", appErr.ErrUnauthorized
	}
	return s.issueToken(user)
}

func (s *AuthService) issueToken(user *model.User) (*model.User, string, error) {
	token, err := jwt.GenerateToken(user.ID, user.Email, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
