package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/loft-be/internal/models"
	"github.com/hongminglow/loft-be/internal/models/dto"
	"github.com/hongminglow/loft-be/internal/storage/memory"
)

type capturedReset struct {
	email     string
	token     string
	expiresAt time.Time
}

type captureNotifier struct {
	sent []capturedReset
}

func (c *captureNotifier) SendPasswordReset(_ context.Context, email, token string, expiresAt time.Time) error {
	c.sent = append(c.sent, capturedReset{email: email, token: token, expiresAt: expiresAt})
	return nil
}

type ServiceSuite struct {
	suite.Suite
	ctx      context.Context
	store    *memory.Store
	notifier *captureNotifier
	svc      *Service
	clock    time.Time
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.notifier = &captureNotifier{}
	s.clock = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.svc = NewService(s.store, zap.NewNop(), nil, Options{
		BcryptCost: bcrypt.MinCost,
		Notifier:   s.notifier,
	})
	s.svc.now = func() time.Time { return s.clock }
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) register(email, password string, role models.Role) SessionInfo {
	info, err := s.svc.Register(s.ctx, dto.RegisterRequest{
		Email:    email,
		Password: password,
		FullName: "Test User",
		Role:     string(role),
	})
	s.Require().NoError(err)
	return info
}

func (s *ServiceSuite) TestRegisterCreatesVerifiedUserWithSession() {
	info := s.register("amel@example.com", "secret1", models.RoleManager)

	s.Len(info.Token, 64)
	s.Equal(s.clock.Add(7*24*time.Hour), info.ExpiresAt)
	s.Equal(models.RoleManager, info.User.Role)
	s.True(info.User.EmailVerified)
	s.True(s.store.HasSession(info.Token))

	stored, ok := s.store.User(info.User.ID)
	s.Require().True(ok)
	s.NotEqual("secret1", stored.PasswordHash)
	s.Require().NotNil(stored.LastLogin)
	s.Equal(s.clock, *stored.LastLogin)
}

func (s *ServiceSuite) TestRegisterDefaultsToMember() {
	info, err := s.svc.Register(s.ctx, dto.RegisterRequest{Email: "m@example.com", Password: "secret1", FullName: "M"})
	s.Require().NoError(err)
	s.Equal(models.RoleMember, info.User.Role)
}

func (s *ServiceSuite) TestRegisterDuplicateEmailLeavesStateUntouched() {
	first := s.register("amel@example.com", "secret1", models.RoleMember)
	before, _ := s.store.User(first.User.ID)
	sessions := s.store.SessionCount()

	s.clock = s.clock.Add(time.Hour)
	_, err := s.svc.Register(s.ctx, dto.RegisterRequest{
		Email:    "amel@example.com",
		Password: "another1",
		FullName: "Someone Else",
	})

	s.ErrorIs(err, ErrDuplicateEmail)
	s.Equal(sessions, s.store.SessionCount())
	after, _ := s.store.User(first.User.ID)
	s.Equal(before.LastLogin, after.LastLogin)
	s.Equal(1, s.store.CallCount("CreateSession"))
}

func (s *ServiceSuite) TestRegisterValidation() {
	cases := map[string]dto.RegisterRequest{
		"email":     {Email: "not-an-email", Password: "secret1", FullName: "A"},
		"password":  {Email: "a@example.com", Password: "123", FullName: "A"},
		"full_name": {Email: "a@example.com", Password: "secret1", FullName: "  "},
		"role":      {Email: "a@example.com", Password: "secret1", FullName: "A", Role: "owner"},
	}
	for field, req := range cases {
		_, err := s.svc.Register(s.ctx, req)
		var verr *models.ValidationError
		s.Require().ErrorAs(err, &verr, field)
		s.Equal(field, verr.Field)
	}
	s.Equal(0, s.store.CallCount("CreateUser"))
}

func (s *ServiceSuite) TestLoginUnknownEmailAndWrongPasswordAreIndistinguishable() {
	s.register("amel@example.com", "secret1", models.RoleMember)

	_, errMissing := s.svc.Login(s.ctx, dto.LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	_, errWrong := s.svc.Login(s.ctx, dto.LoginRequest{Email: "amel@example.com", Password: "wrong-pass"})

	s.ErrorIs(errMissing, ErrInvalidCredentials)
	s.ErrorIs(errWrong, ErrInvalidCredentials)
	s.Equal(errMissing, errWrong)
}

func (s *ServiceSuite) TestLoginOpensSessionAndStampsLastLogin() {
	reg := s.register("amel@example.com", "secret1", models.RoleAdmin)
	s.clock = s.clock.Add(2 * time.Hour)

	info, err := s.svc.Login(s.ctx, dto.LoginRequest{Email: "amel@example.com", Password: "secret1"})
	s.Require().NoError(err)

	s.NotEqual(reg.Token, info.Token)
	s.True(s.store.HasSession(info.Token))
	stored, _ := s.store.User(info.User.ID)
	s.Require().NotNil(stored.LastLogin)
	s.Equal(s.clock, *stored.LastLogin)
}

func (s *ServiceSuite) TestLoginUnverifiedEmail() {
	hash, err := HashPassword("secret1", bcrypt.MinCost)
	s.Require().NoError(err)
	s.store.PutUser(models.User{Email: "new@example.com", PasswordHash: hash, Role: models.RoleMember})

	_, err = s.svc.Login(s.ctx, dto.LoginRequest{Email: "new@example.com", Password: "secret1"})
	s.ErrorIs(err, ErrEmailNotVerified)
	s.Equal(0, s.store.SessionCount())
}

func (s *ServiceSuite) TestLoginWithoutPasswordHash() {
	s.store.PutUser(models.User{Email: "sso@example.com", EmailVerified: true, Role: models.RoleMember})

	_, err := s.svc.Login(s.ctx, dto.LoginRequest{Email: "sso@example.com", Password: "secret1"})
	s.ErrorIs(err, ErrAccountMisconfigured)
}

func (s *ServiceSuite) TestGetSession() {
	info := s.register("amel@example.com", "secret1", models.RoleMember)

	got, ok, err := s.svc.GetSession(s.ctx, info.Token)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(info.User.ID, got.User.ID)

	_, ok, err = s.svc.GetSession(s.ctx, "")
	s.NoError(err)
	s.False(ok)

	_, ok, err = s.svc.GetSession(s.ctx, "unknown")
	s.NoError(err)
	s.False(ok)
}

func (s *ServiceSuite) TestExpiredSessionIsRejectedAndRemoved() {
	info := s.register("amel@example.com", "secret1", models.RoleMember)
	s.clock = info.ExpiresAt.Add(time.Second)

	_, ok, err := s.svc.GetSession(s.ctx, info.Token)
	s.Require().NoError(err)
	s.False(ok)
	s.False(s.store.HasSession(info.Token))
}

func (s *ServiceSuite) TestSessionExpiresExactlyAtDeadline() {
	info := s.register("amel@example.com", "secret1", models.RoleMember)
	s.clock = info.ExpiresAt

	_, ok, err := s.svc.GetSession(s.ctx, info.Token)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *ServiceSuite) TestLogoutRevokesSession() {
	info := s.register("amel@example.com", "secret1", models.RoleMember)

	s.svc.Logout(s.ctx, info.Token)
	s.svc.Logout(s.ctx, info.Token)
	s.svc.Logout(s.ctx, "")

	_, ok, err := s.svc.GetSession(s.ctx, info.Token)
	s.NoError(err)
	s.False(ok)
}

func (s *ServiceSuite) TestPasswordResetFlow() {
	info := s.register("amel@example.com", "secret1", models.RoleMember)

	s.svc.RequestPasswordReset(s.ctx, "amel@example.com")
	s.Require().Len(s.notifier.sent, 1)
	sent := s.notifier.sent[0]
	s.Len(sent.token, 64)
	s.Equal(s.clock.Add(time.Hour), sent.expiresAt)

	err := s.svc.ResetPassword(s.ctx, dto.ResetPasswordRequest{Token: sent.token, Password: "brand-new"})
	s.Require().NoError(err)
	s.False(s.store.HasSession(info.Token))

	_, err = s.svc.Login(s.ctx, dto.LoginRequest{Email: "amel@example.com", Password: "secret1"})
	s.ErrorIs(err, ErrInvalidCredentials)
	_, err = s.svc.Login(s.ctx, dto.LoginRequest{Email: "amel@example.com", Password: "brand-new"})
	s.NoError(err)

	err = s.svc.ResetPassword(s.ctx, dto.ResetPasswordRequest{Token: sent.token, Password: "again-new"})
	s.ErrorIs(err, ErrInvalidResetToken)
}

func (s *ServiceSuite) TestRequestPasswordResetUnknownEmailIsSilent() {
	s.svc.RequestPasswordReset(s.ctx, "ghost@example.com")
	s.Empty(s.notifier.sent)
	s.Equal(1, s.store.CallCount("SetResetToken"))
}

func (s *ServiceSuite) TestResetPasswordExpiredToken() {
	s.register("amel@example.com", "secret1", models.RoleMember)
	s.svc.RequestPasswordReset(s.ctx, "amel@example.com")
	s.Require().Len(s.notifier.sent, 1)

	s.clock = s.clock.Add(61 * time.Minute)
	err := s.svc.ResetPassword(s.ctx, dto.ResetPasswordRequest{Token: s.notifier.sent[0].token, Password: "brand-new"})
	s.ErrorIs(err, ErrInvalidResetToken)
}

func (s *ServiceSuite) TestRequireRole() {
	admin := s.register("admin@example.com", "secret1", models.RoleAdmin)
	member := s.register("member@example.com", "secret1", models.RoleMember)

	d, err := s.svc.RequireRole(s.ctx, admin.Token, models.RoleAdmin)
	s.Require().NoError(err)
	s.True(d.Authorized())
	s.Equal(admin.User.ID, d.Session.User.ID)

	d, err = s.svc.RequireRole(s.ctx, member.Token, models.RoleAdmin)
	s.Require().NoError(err)
	s.False(d.Authorized())
	s.Equal(ReasonForbidden, d.Reason)

	d, err = s.svc.RequireAuth(s.ctx, member.Token)
	s.Require().NoError(err)
	s.True(d.Authorized())

	d, err = s.svc.RequireAuth(s.ctx, "missing")
	s.Require().NoError(err)
	s.Equal(ReasonUnauthenticated, d.Reason)
}

func TestAuthorizeWithoutSession(t *testing.T) {
	d := Authorize(SessionInfo{}, false, models.RoleMember)
	assert.False(t, d.Authorized())
	assert.Equal(t, ReasonUnauthenticated, d.Reason)
}

func TestSessionContextRoundTrip(t *testing.T) {
	_, ok := SessionFromContext(context.Background())
	assert.False(t, ok)

	info := SessionInfo{Token: "abc", User: models.User{Role: models.RoleAdmin}}
	got, ok := SessionFromContext(WithSession(context.Background(), info))
	require.True(t, ok)
	assert.Equal(t, info, got)
}
