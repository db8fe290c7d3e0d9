package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/chatlink/chatlink-server/internal/store"
)

var (
	// ErrInvalidCredentials is returned when username/password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when the username is already taken.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidUsername is returned when the username doesn't meet constraints.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrInvalidPassword is returned when the password doesn't meet constraints.
	ErrInvalidPassword = errors.New("invalid password")
)

// Service provides authentication operations.
type Service struct {
	store     store.UserStore
	jwtConfig *JWTConfig
}

// NewService creates a new authentication service.
func NewService(userStore store.UserStore, jwtConfig *JWTConfig) *Service {
	return &Service{
		store:     userStore,
		jwtConfig: jwtConfig,
	}
}

// Register creates a new user and returns an access token together with the
// created user. A blank display name defaults to the username.
func (s *Service) Register(ctx context.Context, username, displayName, password string) (string, *store.User, error) {
	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 32 {
		return "", nil, ErrInvalidUsername
	}
	if len(password) < 6 {
		return "", nil, ErrInvalidPassword
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = username
	}

	if _, err := s.store.GetUserByUsername(ctx, username); err == nil {
		return "", nil, ErrUserExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return "", nil, err
	}

	user, err := s.store.CreateUser(ctx, username, displayName, hash)
	if err != nil {
		return "", nil, fmt.Errorf("create user: %w", err)
	}

	token, err := GenerateToken(s.jwtConfig, user.ID, user.Username, false)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}
	return token, user, nil
}

// Login validates credentials and returns an access token and the user.
func (s *Service) Login(ctx context.Context, username, password string) (string, *store.User, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !CheckPassword(user.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := GenerateToken(s.jwtConfig, user.ID, user.Username, false)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}
	return token, user, nil
}

// CreateGuestUser creates a temporary guest user and returns an access token
// and the user. The guest's session id is carried on the user record.
func (s *Service) CreateGuestUser(ctx context.Context) (string, *store.User, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return "", nil, fmt.Errorf("generate session id: %w", err)
	}

	user, err := s.store.CreateGuestUser(ctx, sessionID)
	if err != nil {
		return "", nil, fmt.Errorf("create guest user: %w", err)
	}

	token, err := GenerateToken(s.jwtConfig, user.ID, user.Username, true)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}
	return token, user, nil
}

// ValidateToken validates an access token and returns its claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}

func generateSessionID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
