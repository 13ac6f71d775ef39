package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/warbler/internal/model"
)

type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	// GetByID loads the message with its author.
	GetByID(ctx context.Context, id uint) (*model.Message, error)
	// ListByUser returns the user's messages, newest first.
	ListByUser(ctx context.Context, userID uint, offset, limit int) ([]*model.Message, error)
	// ListRecent returns the newest messages across all users.
	ListRecent(ctx context.Context, offset, limit int) ([]*model.Message, error)
	// ListTimeline returns the newest messages written by the user or by
	// anyone the user follows.
	ListTimeline(ctx context.Context, userID uint, limit int) ([]*model.Message, error)
	// Delete removes the message and its likes in one transaction.
	Delete(ctx context.Context, id uint) error
	CountByUser(ctx context.Context, userID uint) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository { return &messageRepository{db: db} }

func (r *messageRepository) Create(ctx context.Context, msg *model.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *messageRepository) GetByID(ctx context.Context, id uint) (*model.Message, error) {
	var m model.Message
	err := r.db.WithContext(ctx).Joins("User").First(&m, "messages.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *messageRepository) ListByUser(ctx context.Context, userID uint, offset, limit int) ([]*model.Message, error) {
	var res []*model.Message
	err := r.db.WithContext(ctx).
		Joins("User").
		Where("messages.user_id = ?", userID).
		Order("messages.created_at DESC, messages.id DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *messageRepository) ListRecent(ctx context.Context, offset, limit int) ([]*model.Message, error) {
	var res []*model.Message
	err := r.db.WithContext(ctx).
		Joins("User").
		Order("messages.created_at DESC, messages.id DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *messageRepository) ListTimeline(ctx context.Context, userID uint, limit int) ([]*model.Message, error) {
	followed := r.db.Model(&model.Follow{}).
		Select("user_being_followed_id").
		Where("user_following_id = ?", userID)

	var res []*model.Message
	err := r.db.WithContext(ctx).
		Joins("User").
		Where("messages.user_id = ? OR messages.user_id IN (?)", userID, followed).
		Order("messages.created_at DESC, messages.id DESC").
		Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *messageRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", id).Delete(&model.Like{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Message{}, id).Error
	})
}

func (r *messageRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Message{}).Where("user_id = ?", userID).Count(&cnt).Error
	return cnt, err
}
