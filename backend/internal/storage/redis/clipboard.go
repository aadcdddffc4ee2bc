// Package redis keeps clipboard entries in Redis. Each user's entry is a hash
// that expires on its own once the clipboard TTL passes; a set per thread
// records which users have that thread staged.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/itchan-dev/uniforum/shared/domain"
	internal_errors "github.com/itchan-dev/uniforum/shared/errors"
	goredis "github.com/redis/go-redis/v9"
)

const (
	fieldThreadId   = "thread_id"
	fieldInsertedAt = "inserted_at"
)

type ClipboardStore struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// New connects to redisURL (redis://host:port/db) and checks the connection.
func New(ctx context.Context, redisURL string, ttl time.Duration) (*ClipboardStore, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewWithClient(client, ttl), nil
}

func NewWithClient(client *goredis.Client, ttl time.Duration) *ClipboardStore {
	return &ClipboardStore{client: client, prefix: "clipboard:", ttl: ttl}
}

func (s *ClipboardStore) userKey(userId domain.UserId) string {
	return s.prefix + "user:" + strconv.FormatInt(userId, 10)
}

func (s *ClipboardStore) threadKey(threadId domain.ThreadId) string {
	return s.prefix + "thread:" + strconv.FormatInt(threadId, 10)
}

// UpsertClipboard replaces the user's single entry and restarts its expiry.
func (s *ClipboardStore) UpsertClipboard(ctx context.Context, entry domain.ClipboardEntry) error {
	previous, err := s.stagedThread(ctx, entry.UserId)
	if err != nil {
		return err
	}

	key := s.userKey(entry.UserId)
	member := strconv.FormatInt(entry.UserId, 10)
	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		if previous != 0 && previous != entry.ThreadId {
			pipe.SRem(ctx, s.threadKey(previous), member)
		}
		pipe.HSet(ctx, key, fieldThreadId, entry.ThreadId, fieldInsertedAt, entry.InsertedAt.UnixNano())
		pipe.PExpireAt(ctx, key, entry.InsertedAt.Add(s.ttl))
		pipe.SAdd(ctx, s.threadKey(entry.ThreadId), member)
		pipe.PExpireAt(ctx, s.threadKey(entry.ThreadId), entry.InsertedAt.Add(s.ttl))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to upsert clipboard: %w", err)
	}
	return nil
}

func (s *ClipboardStore) GetClipboard(ctx context.Context, userId domain.UserId) (domain.ClipboardEntry, error) {
	fields, err := s.client.HGetAll(ctx, s.userKey(userId)).Result()
	if err != nil {
		return domain.ClipboardEntry{}, fmt.Errorf("failed to get clipboard: %w", err)
	}
	if len(fields) == 0 {
		return domain.ClipboardEntry{}, internal_errors.NotFound("Clipboard entry")
	}

	threadId, err := strconv.ParseInt(fields[fieldThreadId], 10, 64)
	if err != nil {
		return domain.ClipboardEntry{}, fmt.Errorf("corrupt clipboard entry of user %d: %w", userId, err)
	}
	insertedAt, err := strconv.ParseInt(fields[fieldInsertedAt], 10, 64)
	if err != nil {
		return domain.ClipboardEntry{}, fmt.Errorf("corrupt clipboard entry of user %d: %w", userId, err)
	}
	return domain.ClipboardEntry{
		UserId:     userId,
		ThreadId:   threadId,
		InsertedAt: time.Unix(0, insertedAt).UTC(),
	}, nil
}

// DeleteExpiredClipboards has nothing to do: Redis drops expired entries itself.
func (s *ClipboardStore) DeleteExpiredClipboards(ctx context.Context, olderThan time.Time) (int64, error) {
	return 0, nil
}

// DeleteClipboardsForThread drops the entries of every user that still has
// threadId staged.
func (s *ClipboardStore) DeleteClipboardsForThread(ctx context.Context, threadId domain.ThreadId) error {
	setKey := s.threadKey(threadId)
	members, err := s.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return fmt.Errorf("failed to list clipboard users: %w", err)
	}
	for _, member := range members {
		userId, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}
		staged, err := s.stagedThread(ctx, userId)
		if err != nil {
			return err
		}
		if staged == threadId {
			if err := s.client.Del(ctx, s.userKey(userId)).Err(); err != nil {
				return fmt.Errorf("failed to delete clipboard entry: %w", err)
			}
		}
	}
	if err := s.client.Del(ctx, setKey).Err(); err != nil {
		return fmt.Errorf("failed to delete clipboard index: %w", err)
	}
	return nil
}

func (s *ClipboardStore) DeleteClipboard(ctx context.Context, userId domain.UserId) error {
	staged, err := s.stagedThread(ctx, userId)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, s.userKey(userId))
		if staged != 0 {
			pipe.SRem(ctx, s.threadKey(staged), strconv.FormatInt(userId, 10))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete clipboard entry: %w", err)
	}
	return nil
}

func (s *ClipboardStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *ClipboardStore) Close() error {
	return s.client.Close()
}

// stagedThread returns 0 when the user has nothing staged.
func (s *ClipboardStore) stagedThread(ctx context.Context, userId domain.UserId) (domain.ThreadId, error) {
	threadId, err := s.client.HGet(ctx, s.userKey(userId), fieldThreadId).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read clipboard: %w", err)
	}
	return threadId, nil
}
