package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/warbler/internal/model"
)

type LikeRepository interface {
	Create(ctx context.Context, userID, messageID uint) error
	Delete(ctx context.Context, userID, messageID uint) error
	Exists(ctx context.Context, userID, messageID uint) (bool, error)
	// ListMessages returns the messages the user has liked, in insertion
	// order of the likes.
	ListMessages(ctx context.Context, userID uint, offset, limit int) ([]*model.Message, error)
	// LikedIDs filters messageIDs down to those the user has liked.
	LikedIDs(ctx context.Context, userID uint, messageIDs []uint) ([]uint, error)
	CountForMessage(ctx context.Context, messageID uint) (int64, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
}

type likeRepository struct{ db *gorm.DB }

func NewLikeRepository(db *gorm.DB) LikeRepository { return &likeRepository{db: db} }

func (r *likeRepository) Create(ctx context.Context, userID, messageID uint) error {
	l := &model.Like{UserID: userID, MessageID: messageID}
	// idempotent: liking twice is not an error
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(l).Error
}

func (r *likeRepository) Delete(ctx context.Context, userID, messageID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		Delete(&model.Like{}).Error
}

func (r *likeRepository) Exists(ctx context.Context, userID, messageID uint) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Like{}).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *likeRepository) ListMessages(ctx context.Context, userID uint, offset, limit int) ([]*model.Message, error) {
	var res []*model.Message
	err := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Joins("User").
		Joins("JOIN likes ON likes.message_id = messages.id").
		Where("likes.user_id = ?", userID).
		Order("likes.created_at").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *likeRepository) LikedIDs(ctx context.Context, userID uint, messageIDs []uint) ([]uint, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&model.Like{}).
		Select("message_id").
		Where("user_id = ? AND message_id IN ?", userID, messageIDs).
		Scan(&ids).Error
	return ids, err
}

func (r *likeRepository) CountForMessage(ctx context.Context, messageID uint) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Like{}).
		Where("message_id = ?", messageID).Count(&cnt).Error
	return cnt, err
}

func (r *likeRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Like{}).
		Where("user_id = ?", userID).Count(&cnt).Error
	return cnt, err
}
