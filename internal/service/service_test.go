package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/warbler/internal/model"
	"github.com/d60-Lab/warbler/internal/repository"
	"github.com/d60-Lab/warbler/pkg/database"
)

// fixture wires every service onto one in-memory sqlite, the same way
// the router does in production.
type fixture struct {
	db       *gorm.DB
	auth     AuthService
	users    UserService
	messages MessageService
	rels     RelationshipService
	likes    LikeService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	userRepo := repository.NewUserRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	followRepo := repository.NewFollowRepository(db)
	likeRepo := repository.NewLikeRepository(db)

	return &fixture{
		db:       db,
		auth:     NewAuthService(userRepo),
		users:    NewUserService(userRepo, messageRepo, followRepo, likeRepo),
		messages: NewMessageService(messageRepo),
		rels:     NewRelationshipService(followRepo, userRepo),
		likes:    NewLikeService(likeRepo, messageRepo),
	}
}

func (f *fixture) signup(t *testing.T, username string) *model.User {
	t.Helper()
	u, err := f.auth.Signup(context.Background(), SignupParams{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) post(t *testing.T, userID uint, text string) *model.Message {
	t.Helper()
	m, err := f.messages.Post(context.Background(), userID, text)
	require.NoError(t, err)
	return m
}
