// Package auth implements registration, login, and token verification.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"costeo/internal/ledger"
	"costeo/internal/subscription"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

type Service struct {
	users  ledger.UserStore
	secret []byte
	expiry time.Duration
}

func NewService(users ledger.UserStore, secret string, expiry time.Duration) *Service {
	return &Service{
		users:  users,
		secret: []byte(secret),
		expiry: expiry,
	}
}

// Register creates a user on the free plan with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, email, name, password string) (ledger.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return ledger.User{}, ErrInvalidEmail
	}
	if len(password) < 8 {
		return ledger.User{}, ErrWeakPassword
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return ledger.User{}, ErrEmailTaken
	} else if !errors.Is(err, ledger.ErrNotFound) {
		return ledger.User{}, fmt.Errorf("check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return ledger.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := ledger.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		Plan:         string(subscription.PlanFree),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return ledger.User{}, fmt.Errorf("create user: %w", err)
	}

	return u, nil
}

// Login verifies the password and returns a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (string, ledger.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return "", ledger.User{}, ErrInvalidCredentials
		}
		return "", ledger.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", ledger.User{}, ErrInvalidCredentials
	}

	token, err := s.IssueToken(u.ID)
	if err != nil {
		return "", ledger.User{}, err
	}

	return token, u, nil
}

// IssueToken signs an HS256 token carrying the user ID as subject.
func (s *Service) IssueToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken parses a signed token and returns the user ID.
func (s *Service) VerifyToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return uuid.Nil, ErrInvalidToken
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}

// CurrentUser loads the user a verified token refers to.
func (s *Service) CurrentUser(ctx context.Context, tokenString string) (ledger.User, error) {
	id, err := s.VerifyToken(tokenString)
	if err != nil {
		return ledger.User{}, err
	}
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return ledger.User{}, ErrInvalidToken
		}
		return ledger.User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}
