package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/libris-app/libris-server/internal/auth"
	"github.com/libris-app/libris-server/internal/domain"
	domainerrors "github.com/libris-app/libris-server/internal/errors"
	"github.com/libris-app/libris-server/internal/id"
	"github.com/libris-app/libris-server/internal/store"
)

// wrongCredentialsMessage deliberately does not say whether the username
// or the password was wrong.
const wrongCredentialsMessage = "wrong username or password"

// AuthService handles account creation, login, and token verification.
type AuthService struct {
	store    *store.Store
	tokens   *auth.TokenService
	verifier auth.CredentialVerifier
	logger   *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(store *store.Store, tokens *auth.TokenService, verifier auth.CredentialVerifier, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:    store,
		tokens:   tokens,
		verifier: verifier,
		logger:   logger,
	}
}

// CreateUserRequest contains the signup arguments.
type CreateUserRequest struct {
	Username      string `json:"username" validate:"required,min=3,max=64"`
	Password      string `json:"password" validate:"required,min=8,max=1024"`
	FavoriteGenre string `json:"favoriteGenre" validate:"max=64"`
}

// CreateUser registers a new account. A taken username surfaces as a
// user-input error carrying the offending arguments.
func (s *AuthService) CreateUser(ctx context.Context, req CreateUserRequest) (*domain.User, error) {
	invalidArgs := map[string]any{"username": req.Username}

	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err, invalidArgs)
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := &domain.User{
		Username:      req.Username,
		PasswordHash:  passwordHash,
		FavoriteGenre: req.FavoriteGenre,
	}
	user.ID = userID
	user.InitTimestamps()

	if err := s.store.CreateUser(ctx, user); err != nil {
		if domainerrors.Is(err, store.ErrUsernameTaken) {
			return nil, domainerrors.BadUserInput("username already taken").
				WithInvalidArgs(invalidArgs).
				WithCause(err)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("user created", "user_id", userID, "username", user.Username)
	}

	return user, nil
}

// Login verifies credentials and issues a signed token. The failure
// message is identical for unknown usernames and wrong passwords.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if store.IsNotFound(err) {
			return "", domainerrors.BadUserInput(wrongCredentialsMessage)
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	valid, err := s.verifier.Verify(user.PasswordHash, password)
	if err != nil {
		return "", fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return "", domainerrors.BadUserInput(wrongCredentialsMessage)
	}

	token, err := s.tokens.IssueToken(user)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("user logged in", "user_id", user.ID)
	}

	return token, nil
}

// CurrentUser verifies a bearer token and loads the user it references.
// A bad signature or expired token is an error; callers must reject the
// request rather than fall back to an anonymous context.
func (s *AuthService) CurrentUser(ctx context.Context, tokenString string) (*domain.User, error) {
	claims, err := s.tokens.VerifyToken(tokenString)
	if err != nil {
		return nil, domainerrors.Unauthenticated("invalid or expired token").WithCause(err)
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, domainerrors.Unauthenticated("token references unknown user")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}
