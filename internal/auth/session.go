package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"product-dashboard/internal/domain"
	"product-dashboard/internal/storage"
)

// Keys of the persisted session
const (
	UserKey  = "user"
	TokenKey = "token"
)

// Session is the signed-in user and token, persisted across restarts
type Session struct {
	kv storage.KV

	mu    sync.RWMutex
	user  *domain.User
	token string
}

func NewSession(kv storage.KV) *Session {
	return &Session{kv: kv}
}

// Init loads the persisted session. Missing keys leave it signed out.
func (s *Session) Init(ctx context.Context) error {
	token, err := s.kv.Get(ctx, TokenKey)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to load token: %w", err)
	}

	var user *domain.User
	raw, err := s.kv.Get(ctx, UserKey)
	switch {
	case err == nil:
		user = &domain.User{}
		if err := json.Unmarshal([]byte(raw), user); err != nil {
			return fmt.Errorf("failed to decode stored user: %w", err)
		}
	case !errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("failed to load user: %w", err)
	}

	s.mu.Lock()
	s.user, s.token = user, token
	s.mu.Unlock()
	return nil
}

// Save persists user and token and makes them current
func (s *Session) Save(ctx context.Context, user domain.User, token string) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := s.kv.Set(ctx, UserKey, string(raw)); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	if err := s.kv.Set(ctx, TokenKey, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	s.mu.Lock()
	s.user, s.token = &user, token
	s.mu.Unlock()
	return nil
}

// Clear removes the persisted session
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.user, s.token = nil, ""
	s.mu.Unlock()

	if err := s.kv.Delete(ctx, UserKey); err != nil {
		return fmt.Errorf("failed to remove user: %w", err)
	}
	if err := s.kv.Delete(ctx, TokenKey); err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}

func (s *Session) User() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return domain.User{}, false
	}
	return *s.user, true
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// IsAuthenticated reports whether a token is present
func (s *Session) IsAuthenticated() bool {
	return s.Token() != ""
}
