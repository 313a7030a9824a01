package service

import (
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/testutil"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

func newTestAuthService() (*AuthService, *testutil.MemUserRepo) {
	users := testutil.NewMemUserRepo()
	cfg := config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 60,
		RefreshTokenTTLHours:  24,
		BcryptCost:            4,
	}
	return NewAuthService(cfg, users, testutil.NewMemRefreshStore()), users
}

func registerInput(role domain.Role) RegisterInput {
	password := gofakeit.Password(true, true, true, false, false, 12)
	return RegisterInput{
		Username:        gofakeit.Username(),
		Email:           gofakeit.Email(),
		Password:        password,
		PasswordConfirm: password,
		Role:            role,
		FirstName:       gofakeit.FirstName(),
		LastName:        gofakeit.LastName(),
	}
}

func TestRegisterLoginProfileRoundTrip(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	input := registerInput(domain.RoleRequester)
	user, pair, err := svc.Register(ctx, input)
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	loggedIn, loginPair, err := svc.Login(ctx, input.Username, input.Password)
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	require.NotEmpty(t, loginPair.AccessToken)

	claims, err := svc.TokenManager().ParseToken(loginPair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, domain.RoleRequester, claims.Role)

	profile, err := svc.GetProfile(ctx, claims.UserID)
	require.NoError(t, err)
	assert.Equal(t, input.Username, profile.Username)
	assert.NotEqual(t, input.Password, profile.PasswordHash, "password must be stored hashed")
}

func TestRegisterPasswordMismatch(t *testing.T) {
	svc, _ := newTestAuthService()

	input := registerInput(domain.RoleRequester)
	input.PasswordConfirm = input.Password + "x"

	_, _, err := svc.Register(context.Background(), input)
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, 400, domainErr.HTTPStatus)
	assert.Contains(t, domainErr.Details, "password")
}

func TestRegisterWeakPasswords(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	short := registerInput(domain.RoleRequester)
	short.Password = "abc1"
	short.PasswordConfirm = "abc1"
	_, _, err := svc.Register(ctx, short)
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.ToDomainError(err).HTTPStatus)

	numeric := registerInput(domain.RoleRequester)
	numeric.Password = "1234567890"
	numeric.PasswordConfirm = "1234567890"
	_, _, err = svc.Register(ctx, numeric)
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.ToDomainError(err).HTTPStatus)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	input := registerInput(domain.RoleRequester)
	_, _, err := svc.Register(ctx, input)
	require.NoError(t, err)

	dup := registerInput(domain.RoleOperator)
	dup.Username = input.Username
	_, _, err = svc.Register(ctx, dup)
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.ToDomainError(err).HTTPStatus)
}

func TestRegisterUnknownRole(t *testing.T) {
	svc, _ := newTestAuthService()

	input := registerInput("SUPERVISOR")
	_, _, err := svc.Register(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.ToDomainError(err).HTTPStatus)
}

func TestLoginFailuresAreOpaque(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	input := registerInput(domain.RoleRequester)
	_, _, err := svc.Register(ctx, input)
	require.NoError(t, err)

	_, _, wrongPass := svc.Login(ctx, input.Username, "not-the-password")
	require.Error(t, wrongPass)
	_, _, unknownUser := svc.Login(ctx, "nobody-here", "whatever-pass")
	require.Error(t, unknownUser)

	// same status and message in both cases, no username probing
	a := apperrors.ToDomainError(wrongPass)
	b := apperrors.ToDomainError(unknownUser)
	assert.Equal(t, 401, a.HTTPStatus)
	assert.Equal(t, 401, b.HTTPStatus)
	assert.Equal(t, a.Message, b.Message)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	_, pair, err := svc.Register(ctx, registerInput(domain.RoleRequester))
	require.NoError(t, err)

	_, fresh, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, fresh.RefreshToken)

	// the consumed token no longer works
	_, _, err = svc.Refresh(ctx, pair.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, 401, apperrors.ToDomainError(err).HTTPStatus)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	_, pair, err := svc.Register(ctx, registerInput(domain.RoleRequester))
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, pair.RefreshToken))

	_, _, err = svc.Refresh(ctx, pair.RefreshToken)
	require.Error(t, err)
}

func TestUpdateProfileKeepsRoleAndUsername(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	user, _, err := svc.Register(ctx, registerInput(domain.RoleExecutor))
	require.NoError(t, err)

	newEmail := gofakeit.Email()
	phone := "555-0101"
	updated, err := svc.UpdateProfile(ctx, user.ID, ProfileUpdateInput{
		Email: &newEmail,
		Phone: &phone,
	})
	require.NoError(t, err)
	assert.Equal(t, newEmail, updated.Email)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, phone, *updated.Phone)
	assert.Equal(t, user.Username, updated.Username)
	assert.Equal(t, domain.RoleExecutor, updated.Role)
}
