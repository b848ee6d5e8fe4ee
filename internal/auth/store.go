package auth

import (
	"context"
	"strings"
	"sync"

	"product-dashboard/internal/domain"

	"go.uber.org/zap"
)

// Fallback messages for failures without a usable message
const (
	RegisterFailed = "Registration failed"
	LoginFailed    = "Login failed"
	LogoutFailed   = "Logout failed"
)

// State is the observable authentication state
type State struct {
	User            *domain.User `json:"user"`
	Token           string       `json:"-"`
	IsAuthenticated bool         `json:"isAuthenticated"`
	Loading         bool         `json:"loading"`
	Err             string       `json:"error,omitempty"`
}

// Store drives register, login and logout, keeping the session in sync
type Store struct {
	service Service
	session *Session
	logger  *zap.Logger

	mu    sync.RWMutex
	state State
}

// NewStore creates a Store seeded from the current session
func NewStore(service Service, session *Session, logger *zap.Logger) *Store {
	s := &Store{service: service, session: session, logger: logger}
	if user, ok := session.User(); ok {
		s.state.User = &user
	}
	s.state.Token = session.Token()
	s.state.IsAuthenticated = session.IsAuthenticated()
	return s
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := s.state
	if state.User != nil {
		user := *state.User
		state.User = &user
	}
	return state
}

func (s *Store) Register(ctx context.Context, name, email, password string) error {
	s.begin()
	user, token, err := s.service.Register(ctx, name, email, password)
	return s.signedIn(ctx, user, token, err, RegisterFailed)
}

func (s *Store) Login(ctx context.Context, email, password string) error {
	s.begin()
	user, token, err := s.service.Login(ctx, email, password)
	return s.signedIn(ctx, user, token, err, LoginFailed)
}

// Logout revokes the current token and clears the session
func (s *Store) Logout(ctx context.Context) error {
	s.begin()
	err := s.service.Logout(ctx, s.session.Token())
	if err == nil {
		err = s.session.Clear(ctx)
	}
	if err != nil {
		s.fail(err, LogoutFailed)
		return err
	}

	s.mu.Lock()
	s.state = State{}
	s.mu.Unlock()
	return nil
}

func (s *Store) signedIn(ctx context.Context, user *domain.User, token string, err error, fallback string) error {
	if err == nil {
		err = s.session.Save(ctx, *user, token)
	}
	if err != nil {
		s.fail(err, fallback)
		return err
	}

	s.mu.Lock()
	s.state = State{User: user, Token: token, IsAuthenticated: true}
	s.mu.Unlock()
	return nil
}

func (s *Store) begin() {
	s.mu.Lock()
	s.state.Loading = true
	s.state.Err = ""
	s.mu.Unlock()
}

func (s *Store) fail(err error, fallback string) {
	message := fallback
	if text := strings.TrimSpace(err.Error()); text != "" {
		message = text
	}
	s.logger.Warn("Authentication failed", zap.String("error", message))

	s.mu.Lock()
	s.state.Loading = false
	s.state.Err = message
	s.mu.Unlock()
}
