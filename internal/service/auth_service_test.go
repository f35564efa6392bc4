package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campushub/campus-api/internal/models"
	appErrors "github.com/campushub/campus-api/pkg/errors"
)

type authUserRepoStub struct {
	users         map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	revokedAll    []string
}

func newAuthUserRepoStub() *authUserRepoStub {
	return &authUserRepoStub{
		users:         make(map[string]*models.User),
		refreshTokens: make(map[string]*models.RefreshToken),
	}
}

func (s *authUserRepoStub) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *authUserRepoStub) FindByID(_ context.Context, id string) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authUserRepoStub) Create(_ context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "u-gen"
	}
	s.users[user.ID] = user
	return nil
}

func (s *authUserRepoStub) UpdatePassword(_ context.Context, id, hash string) error {
	if user, ok := s.users[id]; ok {
		user.PasswordHash = hash
	}
	return nil
}

func (s *authUserRepoStub) TouchLastLogin(_ context.Context, _ string) error { return nil }

func (s *authUserRepoStub) StoreRefreshToken(_ context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = "rt-gen"
	}
	s.refreshTokens[token.Token] = token
	return nil
}

func (s *authUserRepoStub) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	if row, ok := s.refreshTokens[token]; ok && !row.Revoked {
		return row, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authUserRepoStub) RevokeRefreshToken(_ context.Context, id string) error {
	for _, row := range s.refreshTokens {
		if row.ID == id {
			row.Revoked = true
		}
	}
	return nil
}

func (s *authUserRepoStub) RevokeAllForUser(_ context.Context, userID string) error {
	s.revokedAll = append(s.revokedAll, userID)
	for _, row := range s.refreshTokens {
		if row.UserID == userID {
			row.Revoked = true
		}
	}
	return nil
}

type authProfileRepoStub struct {
	profiles map[string]*models.Profile
}

func (s *authProfileRepoStub) FindByUserID(_ context.Context, userID string) (*models.Profile, error) {
	if s.profiles == nil {
		return nil, sql.ErrNoRows
	}
	if profile, ok := s.profiles[userID]; ok {
		return profile, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authProfileRepoStub) Create(_ context.Context, profile *models.Profile) error {
	if s.profiles == nil {
		s.profiles = make(map[string]*models.Profile)
	}
	s.profiles[profile.UserID] = profile
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		Secret:             "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "campushub-test",
	}
}

func TestAuthServiceRegisterCreatesUserAndProfile(t *testing.T) {
	users := newAuthUserRepoStub()
	profiles := &authProfileRepoStub{}
	svc := NewAuthService(users, profiles, validator.New(), nil, testAuthConfig())

	info, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "ade@example.edu",
		Password: "secret123",
		FullName: "Ade Putra",
		Role:     models.RoleStudent,
		ClassID:  "CS-Y2",
	})
	require.NoError(t, err)
	assert.Equal(t, "CS-Y2", info.ClassID)
	require.Len(t, users.users, 1)
	require.Len(t, profiles.profiles, 1)
	assert.Equal(t, "CS-Y2", profiles.profiles[info.ID].ClassID)
}

func TestAuthServiceRegisterDuplicateEmailConflicts(t *testing.T) {
	users := newAuthUserRepoStub()
	profiles := &authProfileRepoStub{}
	svc := NewAuthService(users, profiles, validator.New(), nil, testAuthConfig())

	req := models.RegisterRequest{Email: "ade@example.edu", Password: "secret123", FullName: "Ade", Role: models.RoleStudent}
	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrConflict))
}

func TestAuthServiceLoginIssuesTokensWithClassClaim(t *testing.T) {
	users := newAuthUserRepoStub()
	profiles := &authProfileRepoStub{}
	svc := NewAuthService(users, profiles, validator.New(), nil, testAuthConfig())

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email: "ade@example.edu", Password: "secret123", FullName: "Ade", Role: models.RoleStudent, ClassID: "CS-Y2",
	})
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "ade@example.edu", Password: "secret123"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "CS-Y2", claims.ClassID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	users := newAuthUserRepoStub()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	require.NoError(t, err)
	users.users["u-1"] = &models.User{ID: "u-1", Email: "ade@example.edu", PasswordHash: string(hash), Active: true}
	svc := NewAuthService(users, &authProfileRepoStub{}, validator.New(), nil, testAuthConfig())

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "ade@example.edu", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidCredentials))
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	users := newAuthUserRepoStub()
	svc := NewAuthService(users, &authProfileRepoStub{}, validator.New(), nil, testAuthConfig())

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email: "ade@example.edu", Password: "secret123", FullName: "Ade", Role: models.RoleStudent,
	})
	require.NoError(t, err)
	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "ade@example.edu", Password: "secret123"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The old token was revoked and cannot be replayed.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized))
}

func TestAuthServiceChangePasswordRevokesSessions(t *testing.T) {
	users := newAuthUserRepoStub()
	svc := NewAuthService(users, &authProfileRepoStub{}, validator.New(), nil, testAuthConfig())

	info, err := svc.Register(context.Background(), models.RegisterRequest{
		Email: "ade@example.edu", Password: "secret123", FullName: "Ade", Role: models.RoleStudent,
	})
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), info.ID, models.ChangePasswordRequest{
		OldPassword: "secret123",
		NewPassword: "evenmoresecret",
	})
	require.NoError(t, err)
	assert.Contains(t, users.revokedAll, info.ID)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "ade@example.edu", Password: "evenmoresecret"})
	require.NoError(t, err)
}
