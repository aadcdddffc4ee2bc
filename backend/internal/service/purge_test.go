package service

import (
	"context"
	"testing"

	"github.com/itchan-dev/uniforum/shared/domain"
	internal_errors "github.com/itchan-dev/uniforum/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoveForumsAt(t *testing.T) {
	ctx := context.Background()

	t.Run("removes both forums of the location with their state", func(t *testing.T) {
		env := newTestEnv(t)
		t1, _ := env.start(t, alice, courseForum, "Q1")
		t2, _ := env.start(t, teacher, teachersForum, "staff")
		kept, _ := env.start(t, admin, domain.Forum{Kind: domain.ForumCourseAll, Location: otherCourse}, "elsewhere")
		_, err := env.threads.GetPostPage(ctx, bob, t1, 1)
		require.NoError(t, err)
		require.NoError(t, env.clipboard.Cut(ctx, admin, t2))

		n, err := env.purge.RemoveForumsAt(ctx, admin, domain.ScopeCourse, course)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		assert.NotContains(t, env.store.threads, t1)
		assert.NotContains(t, env.store.threads, t2)
		assert.Contains(t, env.store.threads, kept)
		assert.Empty(t, env.store.marks)
		assert.Empty(t, env.store.clipboard)
	})

	t.Run("requires a system administrator", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.purge.RemoveForumsAt(ctx, teacher, domain.ScopeCourse, course)
		assert.True(t, internal_errors.IsAccess(err))
	})

	t.Run("location-less forums cannot be purged", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.purge.RemoveForumsAt(ctx, admin, domain.ScopeNone, 0)
		assert.True(t, internal_errors.IsValidation(err))
	})
}

func TestPurgeUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	t1, _ := env.start(t, alice, courseForum, "Q1")
	_, err := env.threads.GetPostPage(ctx, bob, t1, 1)
	require.NoError(t, err)
	_, err = env.threads.GetPostPage(ctx, alice, t1, 1)
	require.NoError(t, err)
	require.NoError(t, env.clipboard.Cut(ctx, admin, t1))

	require.NoError(t, env.purge.PurgeUser(ctx, admin, bob.Id))
	assert.NotContains(t, env.store.marks, markKey{t1, bob.Id})
	assert.Contains(t, env.store.marks, markKey{t1, alice.Id})

	require.NoError(t, env.purge.PurgeUser(ctx, admin, admin.Id))
	assert.Empty(t, env.store.clipboard)

	err = env.purge.PurgeUser(ctx, alice, bob.Id)
	assert.True(t, internal_errors.IsAccess(err))
}
