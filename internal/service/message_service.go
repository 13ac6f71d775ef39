package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/d60-Lab/warbler/internal/model"
	"github.com/d60-Lab/warbler/internal/repository"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrMessageEmpty    = errors.New("message text is required")
	ErrMessageTooLong  = errors.New("message exceeds 140 characters")
	// ErrNotMessageOwner reports a delete attempt by anyone other than
	// the author.
	ErrNotMessageOwner = errors.New("not the message owner")
)

// HomeTimelineLimit caps the logged-in home feed.
const HomeTimelineLimit = 100

type MessageService interface {
	// Post stores a new message for userID. Text is trimmed and must be
	// 1..140 characters.
	Post(ctx context.Context, userID uint, text string) (*model.Message, error)
	Get(ctx context.Context, id uint) (*model.Message, error)
	// Delete removes a message. Only the author may delete it.
	Delete(ctx context.Context, requesterID, messageID uint) error
	ListByUser(ctx context.Context, userID uint, page, pageSize int) ([]*model.Message, error)
	// HomeTimeline returns the newest messages written by userID and the
	// accounts userID follows, capped at HomeTimelineLimit.
	HomeTimeline(ctx context.Context, userID uint) ([]*model.Message, error)
	// Recent returns the newest messages site-wide, for the anonymous
	// landing page.
	Recent(ctx context.Context, page, pageSize int) ([]*model.Message, error)
}

type messageService struct {
	messages repository.MessageRepository
}

func NewMessageService(messages repository.MessageRepository) MessageService {
	return &messageService{messages: messages}
}

func (s *messageService) Post(ctx context.Context, userID uint, text string) (*model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrMessageEmpty
	}
	if utf8.RuneCountInString(text) > model.MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	m := &model.Message{Text: text, UserID: userID}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *messageService) Get(ctx context.Context, id uint) (*model.Message, error) {
	m, err := s.messages.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return m, nil
}

func (s *messageService) Delete(ctx context.Context, requesterID, messageID uint) error {
	m, err := s.Get(ctx, messageID)
	if err != nil {
		return err
	}
	if m.UserID != requesterID {
		return ErrNotMessageOwner
	}
	return s.messages.Delete(ctx, messageID)
}

func (s *messageService) ListByUser(ctx context.Context, userID uint, page, pageSize int) ([]*model.Message, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	return s.messages.ListByUser(ctx, userID, offset, pageSize)
}

func (s *messageService) HomeTimeline(ctx context.Context, userID uint) ([]*model.Message, error) {
	return s.messages.ListTimeline(ctx, userID, HomeTimelineLimit)
}

func (s *messageService) Recent(ctx context.Context, page, pageSize int) ([]*model.Message, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	return s.messages.ListRecent(ctx, offset, pageSize)
}
