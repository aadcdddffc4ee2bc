package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/itchan-dev/uniforum/shared/domain"
	internal_errors "github.com/itchan-dev/uniforum/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*ClipboardStore, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	store, err := New(context.Background(), "redis://"+s.Addr(), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, s
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New(context.Background(), "://nope", time.Hour)
	assert.Error(t, err)
}

func TestUpsertAndGetClipboard(t *testing.T) {
	store, s := setupTestRedis(t, time.Hour)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	_, err := store.GetClipboard(ctx, 1)
	assert.True(t, internal_errors.IsNotFound(err))

	require.NoError(t, store.UpsertClipboard(ctx, domain.ClipboardEntry{UserId: 1, ThreadId: 10, InsertedAt: now}))
	require.NoError(t, store.UpsertClipboard(ctx, domain.ClipboardEntry{UserId: 1, ThreadId: 11, InsertedAt: now.Add(time.Second)}))

	entry, err := store.GetClipboard(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(11), entry.ThreadId)
	assert.True(t, entry.InsertedAt.Equal(now.Add(time.Second)))

	assert.False(t, contains(t, s, "clipboard:thread:10", "1"), "re-cutting moves the user out of the old thread's index")
	assert.True(t, contains(t, s, "clipboard:thread:11", "1"))
	assert.Greater(t, s.TTL("clipboard:user:1"), time.Duration(0))
	assert.Greater(t, s.TTL("clipboard:thread:11"), time.Duration(0))
}

func TestEntriesExpire(t *testing.T) {
	store, s := setupTestRedis(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.UpsertClipboard(ctx, domain.ClipboardEntry{UserId: 1, ThreadId: 10, InsertedAt: time.Now()}))
	s.FastForward(2 * time.Minute)

	_, err := store.GetClipboard(ctx, 1)
	assert.True(t, internal_errors.IsNotFound(err))
	assert.False(t, s.Exists("clipboard:thread:10"), "thread index expires with its entries")

	n, err := store.DeleteExpiredClipboards(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDeleteClipboardsForThread(t *testing.T) {
	store, _ := setupTestRedis(t, time.Hour)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.UpsertClipboard(ctx, domain.ClipboardEntry{UserId: 1, ThreadId: 10, InsertedAt: now}))
	require.NoError(t, store.UpsertClipboard(ctx, domain.ClipboardEntry{UserId: 2, ThreadId: 10, InsertedAt: now}))
	require.NoError(t, store.UpsertClipboard(ctx, domain.ClipboardEntry{UserId: 3, ThreadId: 20, InsertedAt: now}))

	require.NoError(t, store.DeleteClipboardsForThread(ctx, 10))

	for _, user := range []domain.UserId{1, 2} {
		_, err := store.GetClipboard(ctx, user)
		assert.True(t, internal_errors.IsNotFound(err), "user %d", user)
	}
	entry, err := store.GetClipboard(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(20), entry.ThreadId)

	require.NoError(t, store.DeleteClipboardsForThread(ctx, 999))
}

func TestDeleteClipboard(t *testing.T) {
	store, s := setupTestRedis(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.UpsertClipboard(ctx, domain.ClipboardEntry{UserId: 1, ThreadId: 10, InsertedAt: time.Now()}))
	require.NoError(t, store.DeleteClipboard(ctx, 1))
	require.NoError(t, store.DeleteClipboard(ctx, 1))

	_, err := store.GetClipboard(ctx, 1)
	assert.True(t, internal_errors.IsNotFound(err))
	assert.False(t, contains(t, s, "clipboard:thread:10", "1"))
}

func contains(t *testing.T, s *miniredis.Miniredis, key, member string) bool {
	t.Helper()
	if !s.Exists(key) {
		return false
	}
	ok, err := s.SIsMember(key, member)
	require.NoError(t, err)
	return ok
}
