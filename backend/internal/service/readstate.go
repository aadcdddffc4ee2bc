package service

import (
	"context"
	"time"

	"github.com/itchan-dev/uniforum/shared/domain"
	internal_errors "github.com/itchan-dev/uniforum/shared/errors"
)

type ReadStateService interface {
	MarkRead(ctx context.Context, threadId domain.ThreadId, userId domain.UserId, through time.Time) error
	UnreadCount(ctx context.Context, threadId domain.ThreadId, userId domain.UserId) (int, error)
	ThreadsWithUnread(ctx context.Context, forum domain.Forum, userId domain.UserId) (int, error)
}

type ReadStateStorage interface {
	// UpsertReadMark never moves an existing mark backwards.
	UpsertReadMark(ctx context.Context, threadId domain.ThreadId, userId domain.UserId, readAt time.Time) error
	GetReadMark(ctx context.Context, threadId domain.ThreadId, userId domain.UserId) (domain.ReadMark, error)
	CountPosts(ctx context.Context, threadId domain.ThreadId) (int, error)
	CountPostsModifiedAfter(ctx context.Context, threadId domain.ThreadId, after time.Time) (int, error)
	ThreadsWithUnread(ctx context.Context, forum domain.Forum, userId domain.UserId) (int, error)
}

type ReadState struct {
	storage ReadStateStorage
}

func NewReadState(storage ReadStateStorage) *ReadState {
	return &ReadState{storage: storage}
}

func (r *ReadState) MarkRead(ctx context.Context, threadId domain.ThreadId, userId domain.UserId, through time.Time) error {
	return r.storage.UpsertReadMark(ctx, threadId, userId, through.UTC())
}

// UnreadCount is the number of posts modified after the user's read mark, or
// every post of the thread if the user never read it.
func (r *ReadState) UnreadCount(ctx context.Context, threadId domain.ThreadId, userId domain.UserId) (int, error) {
	mark, err := r.storage.GetReadMark(ctx, threadId, userId)
	if err != nil {
		if internal_errors.IsNotFound(err) {
			return r.storage.CountPosts(ctx, threadId)
		}
		return 0, err
	}
	return r.storage.CountPostsModifiedAfter(ctx, threadId, mark.ReadAt)
}

// ThreadsWithUnread counts the forum's threads holding a post newer than the
// user's most recent read mark anywhere in the forum. It is an approximation
// meant for badges.
func (r *ReadState) ThreadsWithUnread(ctx context.Context, forum domain.Forum, userId domain.UserId) (int, error) {
	return r.storage.ThreadsWithUnread(ctx, forum, userId)
}
