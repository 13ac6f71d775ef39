package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/warbler/internal/model"
)

func TestFollowAndUnfollow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.signup(t, "alice")
	b := f.signup(t, "bob")

	require.NoError(t, f.rels.Follow(ctx, a.ID, b.ID))

	following, err := f.rels.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, following)

	followedBy, err := f.rels.IsFollowedBy(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, followedBy)

	// not symmetric: bob does not follow alice
	reverse, err := f.rels.IsFollowing(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, reverse)

	require.NoError(t, f.rels.Unfollow(ctx, a.ID, b.ID))

	following, err = f.rels.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, following)

	followedBy, err = f.rels.IsFollowedBy(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, followedBy)
}

func TestFollowTwiceKeepsOneEdge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.signup(t, "alice")
	b := f.signup(t, "bob")

	require.NoError(t, f.rels.Follow(ctx, a.ID, b.ID))
	require.NoError(t, f.rels.Follow(ctx, a.ID, b.ID))

	var cnt int64
	require.NoError(t, f.db.Model(&model.Follow{}).Count(&cnt).Error)
	assert.Equal(t, int64(1), cnt)
}

func TestFollowRejectsSelfAndUnknownTarget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.signup(t, "alice")

	assert.ErrorIs(t, f.rels.Follow(ctx, a.ID, a.ID), ErrFollowSelf)
	assert.ErrorIs(t, f.rels.Follow(ctx, a.ID, 9999), ErrUserNotFound)
	assert.ErrorIs(t, f.rels.Unfollow(ctx, a.ID, 9999), ErrUserNotFound)
}

func TestUnfollowWithoutEdgeIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.signup(t, "alice")
	b := f.signup(t, "bob")

	require.NoError(t, f.rels.Unfollow(ctx, a.ID, b.ID))
}

func TestFollowListsBothDirections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.signup(t, "alice")
	b := f.signup(t, "bob")
	c := f.signup(t, "carol")

	require.NoError(t, f.rels.Follow(ctx, a.ID, c.ID))
	require.NoError(t, f.rels.Follow(ctx, b.ID, c.ID))

	followers, err := f.rels.ListFollowers(ctx, c.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, followers, 2)

	following, err := f.rels.ListFollowing(ctx, a.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, "carol", following[0].Username)
}
