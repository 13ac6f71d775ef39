package model

import (
	"time"
)

// Follow is the directed edge "follower follows followed".
// The composite primary key (user_following_id, user_being_followed_id)
// makes duplicate edges impossible at the store level.
type Follow struct {
	FollowerID uint `gorm:"column:user_following_id;primaryKey;autoIncrement:false"`
	FollowedID uint `gorm:"column:user_being_followed_id;primaryKey;autoIncrement:false"`
	CreatedAt  time.Time

	Follower User `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE"`
	Followed User `gorm:"foreignKey:FollowedID;constraint:OnDelete:CASCADE"`
}

func (Follow) TableName() string { return "follows" }
