package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/warbler/internal/model"
)

func TestFollowRepositoryEdgeLifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	a := seedUser(t, db, "alice")
	b := seedUser(t, db, "bob")

	ok, err := repo.Exists(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Create(ctx, a.ID, b.ID))

	ok, err = repo.Exists(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// the edge is directed
	ok, err = repo.Exists(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Delete(ctx, a.ID, b.ID))
	ok, err = repo.Exists(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// deleting an absent edge is a no-op
	require.NoError(t, repo.Delete(ctx, a.ID, b.ID))
}

func TestFollowRepositoryCreateIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	a := seedUser(t, db, "alice")
	b := seedUser(t, db, "bob")

	require.NoError(t, repo.Create(ctx, a.ID, b.ID))
	require.NoError(t, repo.Create(ctx, a.ID, b.ID))

	var cnt int64
	require.NoError(t, db.Model(&model.Follow{}).Count(&cnt).Error)
	assert.Equal(t, int64(1), cnt)
}

func TestFollowRepositoryListsAndCounts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	a := seedUser(t, db, "alice")
	b := seedUser(t, db, "bob")
	c := seedUser(t, db, "carol")

	require.NoError(t, repo.Create(ctx, a.ID, b.ID))
	require.NoError(t, repo.Create(ctx, a.ID, c.ID))
	require.NoError(t, repo.Create(ctx, b.ID, c.ID))

	following, err := repo.ListFollowing(ctx, a.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, following, 2)
	assert.Equal(t, "bob", following[0].Username)
	assert.Equal(t, "carol", following[1].Username)

	followers, err := repo.ListFollowers(ctx, c.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, followers, 2)
	assert.Equal(t, "alice", followers[0].Username)
	assert.Equal(t, "bob", followers[1].Username)

	cnt, err := repo.CountFollowing(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cnt)

	cnt, err = repo.CountFollowers(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cnt)

	cnt, err = repo.CountFollowers(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), cnt)
}
