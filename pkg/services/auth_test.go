package services

import (
	"net/http"
	"testing"
	"time"

	"github.com/stashbin/stashbin/internal/auth"
	"github.com/stashbin/stashbin/internal/config"
	"github.com/stashbin/stashbin/internal/database"
	"github.com/stashbin/stashbin/pkg/models"
	"github.com/stashbin/stashbin/pkg/schemas"
	"github.com/stashbin/stashbin/pkg/types"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AuthServiceSuite struct {
	suite.Suite
	db  *gorm.DB
	srv *AuthService
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupSuite() {
	s.db = database.NewTestDatabase(s.T())
	s.srv = NewAuthService(s.db, &config.JWTConfig{
		Secret:      "test-secret",
		SessionTime: time.Hour,
	}, zap.NewNop().Sugar())
}

func (s *AuthServiceSuite) SetupTest() {
	s.db.Where("id IS NOT NULL").Delete(&models.User{})
}

func validRegister() *schemas.Register {
	return &schemas.Register{
		Username: "alice",
		Email:    "alice@example.com",
		FullName: "Alice Example",
		Password: "Passw0rd!",
	}
}

func (s *AuthServiceSuite) validationFields(appErr *types.AppError) map[string][]string {
	s.Require().NotNil(appErr)
	s.Require().Equal(http.StatusBadRequest, appErr.Code)
	var ve *types.ValidationError
	s.Require().ErrorAs(appErr.Error, &ve)
	return ve.Fields
}

func (s *AuthServiceSuite) TestRegisterAssignsNamespace() {
	out, appErr := s.srv.Register(validRegister())
	s.Require().Nil(appErr)
	s.Equal("alice", out.Username)
	s.False(out.IsAdministrator)

	var user models.User
	s.Require().NoError(s.db.Where("username = ?", "alice").First(&user).Error)
	s.Equal("user_alice", user.StoragePath)
	s.NotEqual("Passw0rd!", user.PasswordHash)
}

func (s *AuthServiceSuite) TestRegisterUsernameRules() {
	in := validRegister()
	in.Username = "3bob"
	_, appErr := s.srv.Register(in)
	s.Contains(s.validationFields(appErr)["username"], "must start with a letter")

	in = validRegister()
	in.Username = "bob"
	_, appErr = s.srv.Register(in)
	s.Contains(s.validationFields(appErr)["username"], "must be between 4 and 20 characters")

	in = validRegister()
	in.Username = "bob_smith"
	_, appErr = s.srv.Register(in)
	s.Contains(s.validationFields(appErr)["username"], "must contain only letters and digits")
}

func (s *AuthServiceSuite) TestRegisterReportsAllPasswordViolations() {
	in := validRegister()
	in.Password = "abcdef"

	_, appErr := s.srv.Register(in)
	fields := s.validationFields(appErr)
	s.Len(fields["password"], 3)
	s.Contains(fields["password"], "must contain at least one uppercase letter")
	s.Contains(fields["password"], "must contain at least one digit")
	s.Contains(fields["password"], "must contain at least one special character")
}

func (s *AuthServiceSuite) TestRegisterEmailFormat() {
	in := validRegister()
	in.Email = "not-an-email"
	_, appErr := s.srv.Register(in)
	s.Contains(s.validationFields(appErr)["email"], "invalid email format")
}

func (s *AuthServiceSuite) TestRegisterRejectsDuplicates() {
	_, appErr := s.srv.Register(validRegister())
	s.Require().Nil(appErr)

	_, appErr = s.srv.Register(validRegister())
	fields := s.validationFields(appErr)
	s.Contains(fields["username"], "already in use")
	s.Contains(fields["email"], "already in use")

	in := validRegister()
	in.Username = "alice2"
	_, appErr = s.srv.Register(in)
	s.Contains(s.validationFields(appErr)["email"], "already in use")
}

func (s *AuthServiceSuite) TestLoginIssuesToken() {
	_, appErr := s.srv.Register(validRegister())
	s.Require().Nil(appErr)

	out, token, appErr := s.srv.Login(&schemas.Login{Username: "alice", Password: "Passw0rd!"})
	s.Require().Nil(appErr)
	s.Equal("alice", out.Username)
	s.NotEmpty(token)

	claims, err := auth.Decode("test-secret", token)
	s.Require().NoError(err)
	s.Equal("alice", claims.UserName)
	s.False(claims.IsAdmin)
}

func (s *AuthServiceSuite) TestLoginFailureIsGeneric() {
	_, appErr := s.srv.Register(validRegister())
	s.Require().Nil(appErr)

	_, _, wrongPassword := s.srv.Login(&schemas.Login{Username: "alice", Password: "Wrong0ne!"})
	_, _, unknownUser := s.srv.Login(&schemas.Login{Username: "nobody", Password: "Passw0rd!"})

	s.Require().NotNil(wrongPassword)
	s.Require().NotNil(unknownUser)
	s.Equal(http.StatusUnauthorized, wrongPassword.Code)
	s.Equal(http.StatusUnauthorized, unknownUser.Code)
	// the two failure modes are indistinguishable to the caller
	s.ErrorIs(wrongPassword.Error, ErrInvalidCredentials)
	s.ErrorIs(unknownUser.Error, ErrInvalidCredentials)
}

func (s *AuthServiceSuite) TestSession() {
	_, appErr := s.srv.Register(validRegister())
	s.Require().Nil(appErr)

	var user models.User
	s.Require().NoError(s.db.Where("username = ?", "alice").First(&user).Error)

	out, appErr := s.srv.Session(&types.Actor{ID: user.ID})
	s.Require().Nil(appErr)
	s.Equal("alice", out.Username)

	_, appErr = s.srv.Session(&types.Actor{ID: 99999})
	s.Require().NotNil(appErr)
	s.Equal(http.StatusNotFound, appErr.Code)
}
