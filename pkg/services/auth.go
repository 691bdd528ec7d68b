package services

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stashbin/stashbin/internal/auth"
	"github.com/stashbin/stashbin/internal/config"
	"github.com/stashbin/stashbin/internal/database"
	"github.com/stashbin/stashbin/pkg/mapper"
	"github.com/stashbin/stashbin/pkg/models"
	"github.com/stashbin/stashbin/pkg/schemas"
	"github.com/stashbin/stashbin/pkg/types"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Login failures are never attributed to the username or the password.
var ErrInvalidCredentials = errors.New("invalid username or password")

var (
	alphaFirstRegex = regexp.MustCompile(`^[a-zA-Z]`)
	alnumRegex      = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	upperRegex      = regexp.MustCompile(`[A-Z]`)
	digitRegex      = regexp.MustCompile(`[0-9]`)
	symbolRegex     = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
	emailRegex      = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

type AuthService struct {
	db     *gorm.DB
	cnf    *config.JWTConfig
	logger *zap.SugaredLogger
}

func NewAuthService(db *gorm.DB, cnf *config.JWTConfig, logger *zap.SugaredLogger) *AuthService {
	return &AuthService{db: db, cnf: cnf, logger: logger.Named("auth")}
}

func validateRegister(in *schemas.Register) *types.ValidationError {
	ve := &types.ValidationError{}

	if !alphaFirstRegex.MatchString(in.Username) {
		ve.Add("username", "must start with a letter")
	}
	if !alnumRegex.MatchString(in.Username) {
		ve.Add("username", "must contain only letters and digits")
	}
	if len(in.Username) < 4 || len(in.Username) > 20 {
		ve.Add("username", "must be between 4 and 20 characters")
	}

	if len(in.Password) < 6 {
		ve.Add("password", "must be at least 6 characters")
	}
	if !upperRegex.MatchString(in.Password) {
		ve.Add("password", "must contain at least one uppercase letter")
	}
	if !digitRegex.MatchString(in.Password) {
		ve.Add("password", "must contain at least one digit")
	}
	if !symbolRegex.MatchString(in.Password) {
		ve.Add("password", "must contain at least one special character")
	}

	if !emailRegex.MatchString(in.Email) {
		ve.Add("email", "invalid email format")
	}

	if len(ve.Fields) == 0 {
		return nil
	}
	return ve
}

// Register creates an account. Every violated rule is reported, not just the
// first. The storage namespace is derived from the username once and is never
// recomputed.
func (as *AuthService) Register(in *schemas.Register) (*schemas.UserOut, *types.AppError) {
	ve := validateRegister(in)
	if ve == nil {
		ve = &types.ValidationError{}
	}

	var count int64
	if err := as.db.Model(&models.User{}).Where("username = ?", in.Username).Count(&count).Error; err != nil {
		return nil, &types.AppError{Error: err}
	}
	if count > 0 {
		ve.Add("username", "already in use")
	}
	if err := as.db.Model(&models.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
		return nil, &types.AppError{Error: err}
	}
	if count > 0 {
		ve.Add("email", "already in use")
	}

	if len(ve.Fields) > 0 {
		return nil, &types.AppError{Error: ve, Code: http.StatusBadRequest}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, &types.AppError{Error: err}
	}

	user := models.User{
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		PasswordHash: string(hash),
		StoragePath:  "user_" + in.Username,
	}

	if err := as.db.Create(&user).Error; err != nil {
		if database.IsKeyConflictErr(err) {
			conflict := &types.ValidationError{}
			conflict.Add("username", "already in use")
			return nil, &types.AppError{Error: conflict, Code: http.StatusBadRequest}
		}
		return nil, &types.AppError{Error: err}
	}

	as.logger.Infow("user registered", "username", user.Username)

	return mapper.ToUserOut(&user), nil
}

func (as *AuthService) Login(in *schemas.Login) (*schemas.UserOut, string, *types.AppError) {
	var user models.User

	if err := as.db.Where("username = ?", in.Username).First(&user).Error; err != nil {
		if database.IsRecordNotFoundErr(err) {
			return nil, "", &types.AppError{Error: ErrInvalidCredentials, Code: http.StatusUnauthorized}
		}
		return nil, "", &types.AppError{Error: err}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, "", &types.AppError{Error: ErrInvalidCredentials, Code: http.StatusUnauthorized}
	}

	now := time.Now().UTC()
	claims := &types.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.cnf.SessionTime)),
		},
		UserName: user.Username,
		FullName: user.FullName,
		IsAdmin:  user.IsAdministrator,
	}

	token, err := auth.Encode(as.cnf.Secret, claims)
	if err != nil {
		return nil, "", &types.AppError{Error: err}
	}

	as.logger.Infow("user logged in", "username", user.Username)

	return mapper.ToUserOut(&user), token, nil
}

func (as *AuthService) Session(actor *types.Actor) (*schemas.UserOut, *types.AppError) {
	var user models.User

	if err := as.db.Where("id = ?", actor.ID).First(&user).Error; err != nil {
		if database.IsRecordNotFoundErr(err) {
			return nil, &types.AppError{Error: database.ErrNotFound, Code: http.StatusNotFound}
		}
		return nil, &types.AppError{Error: err}
	}

	return mapper.ToUserOut(&user), nil
}
