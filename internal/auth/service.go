// Package auth is the mock authentication backend of the dashboard: a local
// credential store, session persistence and the auth state container.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"product-dashboard/internal/domain"
	"product-dashboard/internal/storage"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for password hashes
	BcryptCost = 10

	// UsersKey holds the JSON array of registered users
	UsersKey = "mock_users_db"

	DefaultTokenExpiry = 24 * time.Hour

	revokedKeyPrefix = "revoked_token:"
)

var (
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserNotFound       = errors.New("user not found")
)

// Service defines the mock authentication operations
type Service interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	Logout(ctx context.Context, token string) error
	ValidateToken(ctx context.Context, token string) (*Claims, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// Claims represents the JWT claims of a session token
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

type ServiceOption func(*service)

// WithTokenExpiry sets how long issued tokens stay valid
func WithTokenExpiry(d time.Duration) ServiceOption {
	return func(s *service) {
		if d > 0 {
			s.expiry = d
		}
	}
}

// WithLatency delays every register and login call, simulating a remote
// backend
func WithLatency(d time.Duration) ServiceOption {
	return func(s *service) { s.latency = d }
}

func WithServiceLogger(logger *zap.Logger) ServiceOption {
	return func(s *service) { s.logger = logger }
}

type service struct {
	kv        storage.KV
	jwtSecret []byte
	expiry    time.Duration
	latency   time.Duration
	logger    *zap.Logger
	now       func() time.Time

	// serializes read-modify-write of the users record
	mu sync.Mutex
}

// NewService creates a Service persisting users in kv
func NewService(kv storage.KV, jwtSecret string, opts ...ServiceOption) Service {
	s := &service{
		kv:        kv,
		jwtSecret: []byte(jwtSecret),
		expiry:    DefaultTokenExpiry,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new account and signs the user in
func (s *service) Register(ctx context.Context, name, email, password string) (*domain.User, string, error) {
	if err := s.wait(ctx); err != nil {
		return nil, "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, "", err
	}
	if findByEmail(users, email) != nil {
		return nil, "", ErrUserAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	stored := domain.StoredUser{
		User: domain.User{
			ID:    uuid.NewString(),
			Name:  strings.TrimSpace(name),
			Email: strings.TrimSpace(email),
		},
		PasswordHash: string(hash),
	}
	users = append(users, stored)
	if err := s.saveUsers(ctx, users); err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(stored.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("User registered", zap.String("user_id", stored.ID))
	user := stored.User
	return &user, token, nil
}

// Login checks the credentials and returns a fresh token
func (s *service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	if err := s.wait(ctx); err != nil {
		return nil, "", err
	}

	s.mu.Lock()
	users, err := s.loadUsers(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, "", err
	}

	stored := findByEmail(users, email)
	if stored == nil {
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(stored.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("User logged in", zap.String("user_id", stored.ID))
	user := stored.User
	return &user, token, nil
}

// Logout revokes token. A token that cannot be parsed is treated as already
// logged out.
func (s *service) Logout(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil || claims.ID == "" {
		return nil
	}
	if err := s.kv.Set(ctx, revokedKeyPrefix+claims.ID, claims.UserID); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// ValidateToken verifies the signature, expiry and revocation of token
func (s *service) ValidateToken(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	_, err = s.kv.Get(ctx, revokedKeyPrefix+claims.ID)
	switch {
	case err == nil:
		return nil, ErrInvalidToken
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("failed to check token revocation: %w", err)
	}

	return claims, nil
}

// GetUser retrieves a registered user by id
func (s *service) GetUser(ctx context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	users, err := s.loadUsers(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	for _, u := range users {
		if u.ID == id {
			user := u.User
			return &user, nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *service) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *service) issueToken(userID string) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

func (s *service) loadUsers(ctx context.Context) ([]domain.StoredUser, error) {
	raw, err := s.kv.Get(ctx, UsersKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	var users []domain.StoredUser
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

func (s *service) saveUsers(ctx context.Context, users []domain.StoredUser) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("failed to encode users: %w", err)
	}
	if err := s.kv.Set(ctx, UsersKey, string(raw)); err != nil {
		return fmt.Errorf("failed to save users: %w", err)
	}
	return nil
}

func (s *service) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// emails compare case-insensitively
func findByEmail(users []domain.StoredUser, email string) *domain.StoredUser {
	email = strings.TrimSpace(email)
	for i := range users {
		if strings.EqualFold(users[i].Email, email) {
			return &users[i]
		}
	}
	return nil
}
