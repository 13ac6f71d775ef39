package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/d60-Lab/warbler/internal/model"
	"github.com/d60-Lab/warbler/internal/repository"
)

var ErrUserNotFound = errors.New("user not found")

// UpdateProfileParams carries the editable profile fields plus the
// current password, which must re-authenticate before the edit applies.
type UpdateProfileParams struct {
	Username       string
	Email          string
	ImageURL       string
	HeaderImageURL string
	Bio            string
	Location       string
	Password       string
}

// UserStats are the counts shown on a profile header.
type UserStats struct {
	Messages  int64
	Following int64
	Followers int64
	Likes     int64
}

type UserService interface {
	Get(ctx context.Context, id uint) (*model.User, error)
	// Search lists users whose username contains query, every user when
	// query is empty.
	Search(ctx context.Context, query string, page, pageSize int) ([]*model.User, error)
	// UpdateProfile applies the edit after re-checking the password.
	// A wrong password returns ErrInvalidCredentials and changes nothing.
	UpdateProfile(ctx context.Context, userID uint, p UpdateProfileParams) (*model.User, error)
	// Delete removes the account and everything hanging off it:
	// messages, likes in both directions, follows in both directions.
	Delete(ctx context.Context, userID uint) error
	Stats(ctx context.Context, userID uint) (UserStats, error)
}

type userService struct {
	users    repository.UserRepository
	messages repository.MessageRepository
	follows  repository.FollowRepository
	likes    repository.LikeRepository
}

func NewUserService(
	users repository.UserRepository,
	messages repository.MessageRepository,
	follows repository.FollowRepository,
	likes repository.LikeRepository,
) UserService {
	return &userService{users: users, messages: messages, follows: follows, likes: likes}
}

func (s *userService) Get(ctx context.Context, id uint) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *userService) Search(ctx context.Context, query string, page, pageSize int) ([]*model.User, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	return s.users.List(ctx, query, offset, pageSize)
}

func (s *userService) UpdateProfile(ctx context.Context, userID uint, p UpdateProfileParams) (*model.User, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(p.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	u.Username = p.Username
	u.Email = p.Email
	u.Bio = p.Bio
	u.Location = p.Location
	u.ImageURL = p.ImageURL
	u.HeaderImageURL = p.HeaderImageURL
	if u.ImageURL == "" {
		u.ImageURL = model.DefaultImageURL
	}
	if u.HeaderImageURL == "" {
		u.HeaderImageURL = model.DefaultHeaderImageURL
	}

	if err := s.users.Update(ctx, u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCredentialsTaken
		}
		return nil, err
	}
	return u, nil
}

func (s *userService) Delete(ctx context.Context, userID uint) error {
	if _, err := s.Get(ctx, userID); err != nil {
		return err
	}
	return s.users.Delete(ctx, userID)
}

func (s *userService) Stats(ctx context.Context, userID uint) (UserStats, error) {
	var st UserStats
	var err error
	if st.Messages, err = s.messages.CountByUser(ctx, userID); err != nil {
		return st, err
	}
	if st.Following, err = s.follows.CountFollowing(ctx, userID); err != nil {
		return st, err
	}
	if st.Followers, err = s.follows.CountFollowers(ctx, userID); err != nil {
		return st, err
	}
	if st.Likes, err = s.likes.CountByUser(ctx, userID); err != nil {
		return st, err
	}
	return st, nil
}
