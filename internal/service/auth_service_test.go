package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/warbler/internal/model"
)

func TestSignupAndAuthenticateRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.auth.Signup(ctx, SignupParams{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cretpass",
	})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.NotEqual(t, "s3cretpass", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cretpass")))

	got, err := f.auth.Authenticate(ctx, "alice", "s3cretpass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestSignupAppliesDefaultArtwork(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.auth.Signup(ctx, SignupParams{
		Username: "plain",
		Email:    "plain@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultImageURL, u.ImageURL)
	assert.Equal(t, model.DefaultHeaderImageURL, u.HeaderImageURL)

	custom, err := f.auth.Signup(ctx, SignupParams{
		Username: "fancy",
		Email:    "fancy@example.com",
		Password: "password123",
		ImageURL: "https://example.com/me.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/me.png", custom.ImageURL)
}

func TestSignupDuplicateCreatesNoRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signup(t, "alice")

	// same username, fresh email
	_, err := f.auth.Signup(ctx, SignupParams{
		Username: "alice",
		Email:    "other@example.com",
		Password: "password123",
	})
	assert.ErrorIs(t, err, ErrCredentialsTaken)

	// same email, fresh username
	_, err = f.auth.Signup(ctx, SignupParams{
		Username: "alice2",
		Email:    "alice@example.com",
		Password: "password123",
	})
	assert.ErrorIs(t, err, ErrCredentialsTaken)

	var cnt int64
	require.NoError(t, f.db.Model(&model.User{}).Count(&cnt).Error)
	assert.Equal(t, int64(1), cnt)
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signup(t, "alice")

	_, err := f.auth.Authenticate(ctx, "alice", "wrongpass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// an unknown username reads exactly the same as a wrong password
	_, err = f.auth.Authenticate(ctx, "nobody", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
