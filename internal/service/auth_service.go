package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

const minPasswordLength = 8

// RefreshStore persists refresh-token digests. Backed by Redis in production.
type RefreshStore interface {
	SaveRefresh(ctx context.Context, digest, userID string, ttl time.Duration) error
	ConsumeRefresh(ctx context.Context, digest string) (string, error)
	RevokeRefresh(ctx context.Context, digest string) error
}

// AuthService coordinates registration, login, profile and token flows.
type AuthService struct {
	users      repository.UserRepository
	refresh    RefreshStore
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, refresh RefreshStore) *AuthService {
	return &AuthService{
		users:      users,
		refresh:    refresh,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL(), cfg.RefreshTokenTTL()),
		bcryptCost: cfg.BcryptCost,
	}
}

// RegisterInput describes the registration payload.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
	Role            domain.Role
	FirstName       string
	LastName        string
	Phone           *string
	Department      *string
}

// Register validates input and creates an account with a fresh token pair.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, *auth.TokenPair, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)

	if input.Username == "" || input.Email == "" || input.Password == "" {
		return nil, nil, apperrors.NewValidationError("username, email and password are required", nil)
	}
	if input.Password != input.PasswordConfirm {
		return nil, nil, apperrors.NewValidationError("passwords do not match",
			map[string]any{"password": "passwords do not match"})
	}
	if err := validatePasswordStrength(input.Password); err != nil {
		return nil, nil, apperrors.NewValidationError(err.Error(),
			map[string]any{"password": err.Error()})
	}
	if input.Role == "" {
		input.Role = domain.RoleRequester
	}
	if !input.Role.Valid() {
		return nil, nil, apperrors.NewValidationError("unknown role",
			map[string]any{"role": string(input.Role)})
	}

	if _, err := s.users.GetByUsername(ctx, input.Username); err == nil {
		return nil, nil, apperrors.NewValidationError("username already taken",
			map[string]any{"username": input.Username})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, apperrors.MapError(err)
	}
	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, nil, apperrors.NewValidationError("email already registered",
			map[string]any{"email": input.Email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	user := &domain.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         input.Role,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Phone:        input.Phone,
		Department:   input.Department,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Login authenticates by username and password. Every failure surfaces the
// same opaque message so callers cannot probe which usernames exist.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, *auth.TokenPair, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh exchanges a live refresh token for a fresh pair, rotating the old one.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.User, *auth.TokenPair, error) {
	userID, err := s.refresh.ConsumeRefresh(ctx, auth.RefreshDigest(refreshToken))
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	if userID == "" {
		return nil, nil, apperrors.NewUnauthorized("invalid refresh token")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewUnauthorized("invalid refresh token")
		}
		return nil, nil, apperrors.MapError(err)
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Logout revokes the presented refresh token.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.refresh.RevokeRefresh(ctx, auth.RefreshDigest(refreshToken))
}

// ProfileUpdateInput carries the mutable profile fields. Role and username
// stay immutable through this path.
type ProfileUpdateInput struct {
	Email      *string
	FirstName  *string
	LastName   *string
	Phone      *string
	Department *string
}

// GetProfile returns the caller's own record.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// UpdateProfile applies a partial update to the caller's own record.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, input ProfileUpdateInput) (*domain.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if email == "" {
			return nil, apperrors.NewValidationError("email must not be empty", nil)
		}
		user.Email = email
	}
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Phone != nil {
		user.Phone = input.Phone
	}
	if input.Department != nil {
		user.Department = input.Department
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issueTokenPair(ctx context.Context, user *domain.User) (*auth.TokenPair, error) {
	access, accessExp, err := s.tokenMgr.GenerateAccessToken(user)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	refresh, digest, refreshExp, err := s.tokenMgr.GenerateRefreshToken()
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.refresh.SaveRefresh(ctx, digest, user.ID, s.tokenMgr.RefreshTTL()); err != nil {
		return nil, apperrors.MapError(err)
	}
	return &auth.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func validatePasswordStrength(password string) error {
	if len(password) < minPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	allDigits := true
	for _, r := range password {
		if !unicode.IsDigit(r) {
			allDigits = false
			break
		}
	}
	if allDigits {
		return errors.New("password must not be entirely numeric")
	}
	return nil
}
