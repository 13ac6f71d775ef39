package model

import "time"

// MaxMessageLength bounds a warble's text body.
const MaxMessageLength = 140

// Message is a short post owned by exactly one user. Immutable after
// creation; only the owner may delete it.
type Message struct {
	ID        uint      `gorm:"primaryKey"`
	Text      string    `gorm:"type:varchar(140);not null"`
	UserID    uint      `gorm:"index:idx_message_user;not null"`
	CreatedAt time.Time `gorm:"index:idx_message_created;not null"`

	User User `gorm:"constraint:OnDelete:CASCADE"`
}

func (Message) TableName() string { return "messages" }
