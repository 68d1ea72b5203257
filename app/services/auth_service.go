package services

import (
	"context"
	"errors"
	"strings"

	"github.com/eadens/cakeworld/app/models"
	"github.com/eadens/cakeworld/app/repositories"
	"github.com/eadens/cakeworld/pkg/apperr"
	"github.com/eadens/cakeworld/pkg/auth"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Name     string `json:"name"     validate:"required,max=255"`
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Address  string `json:"address"  validate:"nullable,max=500"`
	Phone    string `json:"phone"    validate:"nullable,max=50"`
}

type LoginInput struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is a signed token and the user it was issued to.
type Session struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type AuthService struct {
	users *repositories.UserRepository
}

func NewAuthService(users *repositories.UserRepository) *AuthService {
	return &AuthService{users: users}
}

// Register creates a CUSTOMER account and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	const op = "auth.Register"
	email := strings.ToLower(strings.TrimSpace(in.Email))

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return Session{}, apperr.Validation(op, "user already exists", map[string]string{"email": "The email has already been taken."})
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return Session{}, dbErr(ctx, op, err, "")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return Session{}, apperr.Wrap(op, apperr.PersistenceFailure, err, "could not create account")
	}

	user := models.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    email,
		Password: hash,
		Role:     models.RoleCustomer,
		Address:  in.Address,
		Phone:    in.Phone,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return Session{}, dbErr(ctx, op, err, "")
	}
	return s.issue(op, user)
}

// Login verifies the password and signs the user in. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (Session, error) {
	const op = "auth.Login"
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !auth.CheckPassword(user.Password, in.Password)) {
		return Session{}, apperr.New(op, apperr.AuthenticationRequired, "invalid email or password")
	}
	if err != nil {
		return Session{}, dbErr(ctx, op, err, "")
	}
	return s.issue(op, user)
}

// Me returns the account behind p.
func (s *AuthService) Me(ctx context.Context, p auth.Principal) (models.User, error) {
	const op = "auth.Me"
	if err := requireUser(op, p.Anonymous(), "please login"); err != nil {
		return models.User{}, err
	}
	user, err := s.users.FindByID(ctx, p.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, apperr.Wrap(op, apperr.AuthenticationRequired, err, "account no longer exists")
	}
	return user, dbErr(ctx, op, err, "")
}

func (s *AuthService) issue(op string, user models.User) (Session, error) {
	token, err := auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		return Session{}, apperr.Wrap(op, apperr.PersistenceFailure, err, "could not issue session")
	}
	return Session{Token: token, User: user}, nil
}
