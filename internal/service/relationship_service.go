package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/d60-Lab/warbler/internal/model"
	"github.com/d60-Lab/warbler/internal/repository"
)

var (
	ErrFollowSelf = errors.New("cannot follow self")
)

type RelationshipService interface {
	// Follow makes fromUserID follow toUserID. Following an account you
	// already follow is a no-op; following yourself is an error; the
	// target must exist.
	Follow(ctx context.Context, fromUserID, toUserID uint) error
	// Unfollow removes the edge. Unfollowing an account you do not
	// follow is a no-op; the target must exist.
	Unfollow(ctx context.Context, fromUserID, toUserID uint) error
	IsFollowing(ctx context.Context, fromUserID, toUserID uint) (bool, error)
	IsFollowedBy(ctx context.Context, userID, otherID uint) (bool, error)
	ListFollowing(ctx context.Context, userID uint, page, pageSize int) ([]*model.User, error)
	ListFollowers(ctx context.Context, userID uint, page, pageSize int) ([]*model.User, error)
}

type relationshipService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

func NewRelationshipService(followRepo repository.FollowRepository, userRepo repository.UserRepository) RelationshipService {
	return &relationshipService{followRepo: followRepo, userRepo: userRepo}
}

func (s *relationshipService) Follow(ctx context.Context, fromUserID, toUserID uint) error {
	if fromUserID == toUserID {
		return ErrFollowSelf
	}
	if err := s.requireUser(ctx, toUserID); err != nil {
		return err
	}
	return s.followRepo.Create(ctx, fromUserID, toUserID)
}

func (s *relationshipService) Unfollow(ctx context.Context, fromUserID, toUserID uint) error {
	if err := s.requireUser(ctx, toUserID); err != nil {
		return err
	}
	return s.followRepo.Delete(ctx, fromUserID, toUserID)
}

func (s *relationshipService) IsFollowing(ctx context.Context, fromUserID, toUserID uint) (bool, error) {
	return s.followRepo.Exists(ctx, fromUserID, toUserID)
}

func (s *relationshipService) IsFollowedBy(ctx context.Context, userID, otherID uint) (bool, error) {
	return s.followRepo.Exists(ctx, otherID, userID)
}

func (s *relationshipService) ListFollowing(ctx context.Context, userID uint, page, pageSize int) ([]*model.User, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	return s.followRepo.ListFollowing(ctx, userID, offset, pageSize)
}

func (s *relationshipService) ListFollowers(ctx context.Context, userID uint, page, pageSize int) ([]*model.User, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	return s.followRepo.ListFollowers(ctx, userID, offset, pageSize)
}

func (s *relationshipService) requireUser(ctx context.Context, id uint) error {
	if _, err := s.userRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}
