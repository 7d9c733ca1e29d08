package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sala-digital/attendance-api/internal/models"
	appErrors "github.com/sala-digital/attendance-api/pkg/errors"
)

type fakeUserRepo struct {
	users   map[string]models.User // by email
	tokens  map[string]models.RefreshToken
	revoked []string
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := f.users[email]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (f *fakeUserRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if f.tokens == nil {
		f.tokens = make(map[string]models.RefreshToken)
	}
	f.tokens[token.Token] = *token
	return nil
}

func (f *fakeUserRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := f.tokens[token]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	f.revoked = append(f.revoked, id)
	for key, t := range f.tokens {
		if t.ID == id {
			t.Revoked = true
			f.tokens[key] = t
		}
	}
	return nil
}

func (f *fakeUserRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	return nil
}

func testAuthService(repo *fakeUserRepo) *AuthService {
	return NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "attendance-api",
	})
}

func testUser(t *testing.T) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	return models.User{
		ID:           "u1",
		Email:        "admin@school.test",
		PasswordHash: string(hash),
		FullName:     "Admin",
		Role:         models.RoleAdmin,
		Active:       true,
	}
}

func TestAuthLoginIssuesTokens(t *testing.T) {
	repo := &fakeUserRepo{users: map[string]models.User{"admin@school.test": testUser(t)}}
	svc := testAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@school.test", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, "u1", res.User.ID)
	assert.Len(t, repo.tokens, 1)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	repo := &fakeUserRepo{users: map[string]models.User{"admin@school.test": testUser(t)}}
	svc := testAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@school.test", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginInactiveAccount(t *testing.T) {
	user := testUser(t)
	user.Active = false
	repo := &fakeUserRepo{users: map[string]models.User{user.Email: user}}
	svc := testAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "secret123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthRefreshRotatesToken(t *testing.T) {
	repo := &fakeUserRepo{users: map[string]models.User{"admin@school.test": testUser(t)}}
	svc := testAuthService(repo)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@school.test", Password: "secret123"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	assert.NotEmpty(t, repo.revoked)

	// The consumed token cannot be replayed.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
}

func TestAuthValidateTokenRejectsGarbage(t *testing.T) {
	svc := testAuthService(&fakeUserRepo{})

	_, err := svc.ValidateToken("not-a-jwt")
	require.Error(t, err)
}
