package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/d60-Lab/warbler/internal/model"
	"github.com/d60-Lab/warbler/internal/repository"
)

type LikeService interface {
	// Like marks messageID as liked by userID. Liking twice is a no-op;
	// the message must exist. Users may like their own messages.
	Like(ctx context.Context, userID, messageID uint) error
	// Unlike removes the like. Unliking a message you never liked is a
	// no-op; the message must exist.
	Unlike(ctx context.Context, userID, messageID uint) error
	IsLiked(ctx context.Context, userID, messageID uint) (bool, error)
	// ListLiked returns the messages userID has liked, oldest like
	// first, authors preloaded.
	ListLiked(ctx context.Context, userID uint, page, pageSize int) ([]*model.Message, error)
	// LikedIDs filters messageIDs down to the set userID has liked, for
	// rendering like toggles over a feed in one query.
	LikedIDs(ctx context.Context, userID uint, messageIDs []uint) (map[uint]bool, error)
}

type likeService struct {
	likes    repository.LikeRepository
	messages repository.MessageRepository
}

func NewLikeService(likes repository.LikeRepository, messages repository.MessageRepository) LikeService {
	return &likeService{likes: likes, messages: messages}
}

func (s *likeService) Like(ctx context.Context, userID, messageID uint) error {
	if err := s.requireMessage(ctx, messageID); err != nil {
		return err
	}
	return s.likes.Create(ctx, userID, messageID)
}

func (s *likeService) Unlike(ctx context.Context, userID, messageID uint) error {
	if err := s.requireMessage(ctx, messageID); err != nil {
		return err
	}
	return s.likes.Delete(ctx, userID, messageID)
}

func (s *likeService) IsLiked(ctx context.Context, userID, messageID uint) (bool, error) {
	return s.likes.Exists(ctx, userID, messageID)
}

func (s *likeService) ListLiked(ctx context.Context, userID uint, page, pageSize int) ([]*model.Message, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	return s.likes.ListMessages(ctx, userID, offset, pageSize)
}

func (s *likeService) LikedIDs(ctx context.Context, userID uint, messageIDs []uint) (map[uint]bool, error) {
	ids, err := s.likes.LikedIDs(ctx, userID, messageIDs)
	if err != nil {
		return nil, err
	}
	liked := make(map[uint]bool, len(ids))
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

func (s *likeService) requireMessage(ctx context.Context, id uint) error {
	if _, err := s.messages.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMessageNotFound
		}
		return err
	}
	return nil
}
