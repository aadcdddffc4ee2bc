package service

import (
	"context"
	"time"

	"github.com/itchan-dev/uniforum/shared/domain"
	internal_errors "github.com/itchan-dev/uniforum/shared/errors"
	"github.com/itchan-dev/uniforum/shared/logger"
)

type ClipboardService interface {
	Cut(ctx context.Context, caller domain.User, threadId domain.ThreadId) error
	Paste(ctx context.Context, caller domain.User, dest domain.Forum) (domain.PasteResult, error)
	Get(ctx context.Context, caller domain.User) (domain.ClipboardEntry, error)
	ExpirePurge(ctx context.Context) error
}

// ClipboardStorage keeps at most one entry per user.
type ClipboardStorage interface {
	UpsertClipboard(ctx context.Context, entry domain.ClipboardEntry) error
	GetClipboard(ctx context.Context, userId domain.UserId) (domain.ClipboardEntry, error)
	DeleteExpiredClipboards(ctx context.Context, olderThan time.Time) (int64, error)
	DeleteClipboardsForThread(ctx context.Context, threadId domain.ThreadId) error
	DeleteClipboard(ctx context.Context, userId domain.UserId) error
}

type MoveStorage interface {
	GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error)
	MoveThread(ctx context.Context, id domain.ThreadId, to domain.Forum) error
}

type Clipboard struct {
	storage    ClipboardStorage
	threads    MoveStorage
	forums     ForumService
	moderation ModerationService
	ttl        time.Duration
	now        func() time.Time
}

func NewClipboard(storage ClipboardStorage, threads MoveStorage, forums ForumService, moderation ModerationService, ttl time.Duration) *Clipboard {
	return &Clipboard{
		storage:    storage,
		threads:    threads,
		forums:     forums,
		moderation: moderation,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Cut stages the thread for moving, replacing whatever the caller had staged.
func (c *Clipboard) Cut(ctx context.Context, caller domain.User, threadId domain.ThreadId) error {
	if err := c.requireMove(ctx, caller); err != nil {
		return err
	}
	if _, err := c.threads.GetThread(ctx, threadId); err != nil {
		return err
	}
	if err := c.ExpirePurge(ctx); err != nil {
		return err
	}
	return c.storage.UpsertClipboard(ctx, domain.ClipboardEntry{
		UserId:     caller.Id,
		ThreadId:   threadId,
		InsertedAt: c.now().UTC(),
	})
}

// Paste moves the staged thread into dest. The entry stays on the clipboard
// afterwards, so pasting again moves the same thread once more.
func (c *Clipboard) Paste(ctx context.Context, caller domain.User, dest domain.Forum) (domain.PasteResult, error) {
	if err := c.requireMove(ctx, caller); err != nil {
		return domain.PasteResult{}, err
	}
	dest, err := c.forums.Resolve(ctx, caller, dest.Kind, dest.Location)
	if err != nil {
		return domain.PasteResult{}, err
	}
	if err := c.ExpirePurge(ctx); err != nil {
		return domain.PasteResult{}, err
	}

	entry, err := c.storage.GetClipboard(ctx, caller.Id)
	if err != nil {
		if internal_errors.IsNotFound(err) {
			return domain.PasteResult{}, internal_errors.InvalidState("Nothing to paste")
		}
		return domain.PasteResult{}, err
	}
	thread, err := c.threads.GetThread(ctx, entry.ThreadId)
	if err != nil {
		return domain.PasteResult{}, err
	}

	result := domain.PasteResult{ThreadId: thread.Id, From: thread.Forum(), To: dest}
	if thread.Forum() == dest {
		result.AlreadyThere = true
		return result, nil
	}
	if err := c.threads.MoveThread(ctx, thread.Id, dest); err != nil {
		return domain.PasteResult{}, err
	}
	threadsMoved.Inc()
	logger.FromContext(ctx).Info("thread moved", "thread_id", thread.Id, "from", result.From.String(), "to", dest.String())
	return result, nil
}

func (c *Clipboard) Get(ctx context.Context, caller domain.User) (domain.ClipboardEntry, error) {
	if err := c.requireMove(ctx, caller); err != nil {
		return domain.ClipboardEntry{}, err
	}
	entry, err := c.storage.GetClipboard(ctx, caller.Id)
	if err != nil {
		return domain.ClipboardEntry{}, err
	}
	if c.expired(entry) {
		return domain.ClipboardEntry{}, internal_errors.NotFound("Clipboard entry")
	}
	return entry, nil
}

// ExpirePurge drops entries older than the configured TTL.
func (c *Clipboard) ExpirePurge(ctx context.Context) error {
	n, err := c.storage.DeleteExpiredClipboards(ctx, c.now().UTC().Add(-c.ttl))
	if err != nil {
		return err
	}
	if n > 0 {
		logger.FromContext(ctx).Debug("expired clipboard entries purged", "count", n)
	}
	return nil
}

func (c *Clipboard) expired(entry domain.ClipboardEntry) bool {
	return entry.InsertedAt.Before(c.now().UTC().Add(-c.ttl))
}

func (c *Clipboard) requireMove(ctx context.Context, caller domain.User) error {
	ok, err := c.moderation.CanMove(ctx, caller)
	if err != nil {
		return err
	}
	if !ok {
		return internal_errors.Access("Only platform administrators can move threads")
	}
	return nil
}
