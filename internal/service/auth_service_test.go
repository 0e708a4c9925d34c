package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/deskflow/helpdesk/internal/config"
	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/repository/memory"
	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
)

func newAuthService(t *testing.T) (*AuthService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 5, BcryptCost: bcrypt.MinCost}}
	return NewAuthService(cfg, AuthDependencies{UserRepo: store.Users(), DepartmentRepo: store.Departments()}), store
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, "Awa", "Awa@Example.com", "motdepasse")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleClient, session.User.Role)
	assert.Equal(t, "awa@example.com", session.User.Email)
	assert.NotEmpty(t, session.Token)

	claims, err := svc.TokenManager().ParseToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID())

	_, err = svc.Register(ctx, "Awa", "awa@example.com", "motdepasse")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	login, err := svc.Login(ctx, "AWA@example.com", "motdepasse")
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, login.User.ID)

	_, err = svc.Login(ctx, "awa@example.com", "mauvais")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	_, err = svc.Login(ctx, "nobody@example.com", "motdepasse")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestCreateUserIsAdminOnly(t *testing.T) {
	svc, store := newAuthService(t)
	ctx := context.Background()
	dept := &domain.Department{Name: "Informatique"}
	require.NoError(t, store.Departments().Create(ctx, dept))

	admin := domain.Actor{ID: "admin", Role: domain.RoleAdmin}
	input := AccountInput{Name: "Agent", Email: "agent@example.com", Password: "motdepasse", Role: domain.RoleAgent, DepartmentID: &dept.ID}

	_, err := svc.CreateUser(ctx, domain.Actor{ID: "c", Role: domain.RoleClient}, input)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	agent, err := svc.CreateUser(ctx, admin, input)
	require.NoError(t, err)
	assert.True(t, agent.IsAgentOf(dept.ID))

	noDept := input
	noDept.Email = "agent2@example.com"
	noDept.DepartmentID = nil
	_, err = svc.CreateUser(ctx, admin, noDept)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	badRole := input
	badRole.Email = "x@example.com"
	badRole.Role = "Root"
	_, err = svc.CreateUser(ctx, admin, badRole)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestChangePassword(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()
	session, err := svc.Register(ctx, "Awa", "awa@example.com", "motdepasse")
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, session.User.ID, "faux-mot", "nouveaumotdepasse")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	require.NoError(t, svc.ChangePassword(ctx, session.User.ID, "motdepasse", "nouveaumotdepasse"))

	_, err = svc.Login(ctx, "awa@example.com", "nouveaumotdepasse")
	assert.NoError(t, err)
}

func TestLoginUpgradesHashCost(t *testing.T) {
	svc, store := newAuthService(t)
	ctx := context.Background()
	session, err := svc.Register(ctx, "Awa", "awa@example.com", "motdepasse")
	require.NoError(t, err)

	stale, err := bcrypt.GenerateFromPassword([]byte("motdepasse"), bcrypt.MinCost+1)
	require.NoError(t, err)
	user, err := store.Users().GetByID(ctx, session.User.ID)
	require.NoError(t, err)
	user.PasswordHash = string(stale)
	require.NoError(t, store.Users().Update(ctx, user))

	_, err = svc.Login(ctx, "awa@example.com", "motdepasse")
	require.NoError(t, err)

	user, err = store.Users().GetByID(ctx, session.User.ID)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(user.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}

func TestRegisterRejectsOverlongPassword(t *testing.T) {
	svc, _ := newAuthService(t)
	_, err := svc.Register(context.Background(), "Awa", "awa@example.com", strings.Repeat("x", 80))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}
