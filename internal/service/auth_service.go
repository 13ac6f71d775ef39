package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/d60-Lab/warbler/internal/model"
	"github.com/d60-Lab/warbler/internal/repository"
)

var (
	// ErrCredentialsTaken reports a signup whose email or username is
	// already in use. Signup does not pre-check; it attempts the insert
	// and maps the store's uniqueness violation.
	ErrCredentialsTaken = errors.New("email or username already taken")
	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password; callers cannot tell the two apart.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

type SignupParams struct {
	Email          string
	Username       string
	Password       string
	ImageURL       string
	HeaderImageURL string
}

type AuthService interface {
	// Signup creates an account with a bcrypt-hashed password. Blank
	// image URLs get the default artwork.
	Signup(ctx context.Context, p SignupParams) (*model.User, error)
	// Authenticate returns the user matching username+password, or
	// ErrInvalidCredentials. It never distinguishes a missing user from
	// a bad password.
	Authenticate(ctx context.Context, username, password string) (*model.User, error)
}

type authService struct {
	users repository.UserRepository
}

func NewAuthService(users repository.UserRepository) AuthService {
	return &authService{users: users}
}

func (s *authService) Signup(ctx context.Context, p SignupParams) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		Email:          p.Email,
		Username:       p.Username,
		PasswordHash:   string(hash),
		ImageURL:       p.ImageURL,
		HeaderImageURL: p.HeaderImageURL,
	}
	if u.ImageURL == "" {
		u.ImageURL = model.DefaultImageURL
	}
	if u.HeaderImageURL == "" {
		u.HeaderImageURL = model.DefaultHeaderImageURL
	}

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCredentialsTaken
		}
		return nil, err
	}
	return u, nil
}

func (s *authService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
