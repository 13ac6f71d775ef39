package model

import "time"

// Default artwork for accounts that sign up without pictures. Applied
// explicitly by the signup service, never by column defaults.
const (
	DefaultImageURL       = "/static/images/default-pic.png"
	DefaultHeaderImageURL = "/static/images/warbler-hero.jpg"
)

// User is an account holder. Email and username are unique at the store
// level; signup attempts the insert and maps the violation.
type User struct {
	ID             uint   `gorm:"primaryKey"`
	Email          string `gorm:"type:varchar(120);uniqueIndex;not null"`
	Username       string `gorm:"type:varchar(40);uniqueIndex;not null"`
	PasswordHash   string `gorm:"type:varchar(100);not null"`
	ImageURL       string `gorm:"type:varchar(255)"`
	HeaderImageURL string `gorm:"type:varchar(255)"`
	Bio            string `gorm:"type:text"`
	Location       string `gorm:"type:varchar(80)"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (User) TableName() string { return "users" }
