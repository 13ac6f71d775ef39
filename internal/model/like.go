package model

import "time"

// Like marks a message as liked by a user. The composite primary key
// (user_id, message_id) prevents duplicate likes; liking one's own
// message is not restricted here.
type Like struct {
	UserID    uint `gorm:"primaryKey;autoIncrement:false"`
	MessageID uint `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time

	User    User    `gorm:"constraint:OnDelete:CASCADE"`
	Message Message `gorm:"constraint:OnDelete:CASCADE"`
}

func (Like) TableName() string { return "likes" }
