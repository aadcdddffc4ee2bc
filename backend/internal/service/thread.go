package service

import (
	"context"
	"time"

	"github.com/itchan-dev/uniforum/shared/config"
	"github.com/itchan-dev/uniforum/shared/domain"
	internal_errors "github.com/itchan-dev/uniforum/shared/errors"
	"github.com/itchan-dev/uniforum/shared/logger"
)

type ThreadService interface {
	Start(ctx context.Context, caller domain.User, data domain.ThreadCreationData) (domain.ThreadId, domain.PostId, error)
	Get(ctx context.Context, caller domain.User, id domain.ThreadId) (domain.Thread, error)
	ListPage(ctx context.Context, caller domain.User, forum domain.Forum, order domain.ThreadOrder, page int) (domain.ThreadPage, error)
	GetPostPage(ctx context.Context, caller domain.User, id domain.ThreadId, page int) (domain.PostPage, error)
	Remove(ctx context.Context, caller domain.User, id domain.ThreadId) error
}

type ThreadStorage interface {
	// CreateThread stores the thread and its first post as one unit.
	CreateThread(ctx context.Context, data domain.ThreadCreationData, createdAt time.Time) (domain.ThreadId, domain.PostId, error)
	GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error)
	// DeleteThread removes the thread with its posts, disabled markers, read marks and clipboard rows.
	DeleteThread(ctx context.Context, id domain.ThreadId) error
	CountThreads(ctx context.Context, forum domain.Forum) (int, error)
	ListThreadsPage(ctx context.Context, forum domain.Forum, userId domain.UserId, order domain.ThreadOrder, offset, limit int) ([]domain.ThreadSummary, error)
	CountPosts(ctx context.Context, id domain.ThreadId) (int, error)
	ListPostsPage(ctx context.Context, id domain.ThreadId, offset, limit int) ([]domain.PostView, error)
}

// PostValidator checks and normalizes user supplied post content.
type PostValidator interface {
	Content(subject, body string) (domain.PostSubject, domain.PostBody, error)
	Attachment(name *string) (*string, error)
}

// Notifier is told about new posts. It never reports failures to the caller.
type Notifier interface {
	NotifyNewPost(ctx context.Context, postId domain.PostId, audience domain.NotificationAudience)
}

// ClipboardCleaner drops clipboard entries of deleted threads. The postgres
// store cascades on its own, other backends need to be told.
type ClipboardCleaner interface {
	DeleteClipboardsForThread(ctx context.Context, threadId domain.ThreadId) error
}

type Thread struct {
	storage    ThreadStorage
	forums     ForumService
	moderation ModerationService
	readState  ReadStateService
	validator  PostValidator
	notifier   Notifier
	clipboard  ClipboardCleaner
	cfg        *config.Public
	now        func() time.Time
}

func NewThread(
	storage ThreadStorage,
	forums ForumService,
	moderation ModerationService,
	readState ReadStateService,
	validator PostValidator,
	notifier Notifier,
	clipboard ClipboardCleaner,
	cfg *config.Public,
) *Thread {
	return &Thread{
		storage:    storage,
		forums:     forums,
		moderation: moderation,
		readState:  readState,
		validator:  validator,
		notifier:   notifier,
		clipboard:  clipboard,
		cfg:        cfg,
		now:        time.Now,
	}
}

func (t *Thread) Start(ctx context.Context, caller domain.User, data domain.ThreadCreationData) (domain.ThreadId, domain.PostId, error) {
	forum, err := t.forums.Resolve(ctx, caller, data.Forum.Kind, data.Forum.Location)
	if err != nil {
		return 0, 0, err
	}
	subject, body, err := t.validator.Content(string(data.OpPost.Subject), string(data.OpPost.Body))
	if err != nil {
		return 0, 0, err
	}
	attachment, err := t.validator.Attachment(data.OpPost.Attachment)
	if err != nil {
		return 0, 0, err
	}

	data.Forum = forum
	data.OpPost.AuthorId = caller.Id
	data.OpPost.Subject = subject
	data.OpPost.Body = body
	data.OpPost.Attachment = attachment

	threadId, postId, err := t.storage.CreateThread(ctx, data, t.now().UTC())
	if err != nil {
		return 0, 0, err
	}
	threadsStarted.Inc()
	postsCreated.Inc()
	logger.FromContext(ctx).Info("thread started", "thread_id", threadId, "post_id", postId, "forum", forum.String())

	t.notifier.NotifyNewPost(ctx, postId, domain.NotificationAudience{Forum: forum, ThreadId: threadId, AuthorId: caller.Id})
	return threadId, postId, nil
}

func (t *Thread) Get(ctx context.Context, caller domain.User, id domain.ThreadId) (domain.Thread, error) {
	thread, err := t.storage.GetThread(ctx, id)
	if err != nil {
		return domain.Thread{}, err
	}
	if err := t.forums.Authorize(ctx, caller, thread.Forum()); err != nil {
		return domain.Thread{}, err
	}
	return thread, nil
}

// ListPage returns one page of the forum's threads. The first post subject of
// a thread whose first post is banned is withheld from non-moderators.
func (t *Thread) ListPage(ctx context.Context, caller domain.User, forum domain.Forum, order domain.ThreadOrder, page int) (domain.ThreadPage, error) {
	forum, err := t.forums.Resolve(ctx, caller, forum.Kind, forum.Location)
	if err != nil {
		return domain.ThreadPage{}, err
	}
	total, err := t.storage.CountThreads(ctx, forum)
	if err != nil {
		return domain.ThreadPage{}, err
	}
	p := domain.Paginate(total, t.cfg.ThreadsPerPage, page)

	threads, err := t.storage.ListThreadsPage(ctx, forum, caller.Id, order, p.Offset(), p.Limit())
	if err != nil {
		return domain.ThreadPage{}, err
	}
	moderator, err := t.moderation.CanModerate(ctx, caller, forum)
	if err != nil {
		return domain.ThreadPage{}, err
	}
	if !moderator {
		for i := range threads {
			if threads[i].FirstBanned {
				threads[i].Subject = ""
				threads[i].Redacted = true
			}
		}
	}
	return domain.ThreadPage{Forum: forum, Page: p, Threads: threads}, nil
}

// GetPostPage returns one page of the thread's posts and advances the
// caller's read mark through the newest post shown. A page below 1 selects
// the page holding the caller's first unread post.
func (t *Thread) GetPostPage(ctx context.Context, caller domain.User, id domain.ThreadId, page int) (domain.PostPage, error) {
	thread, err := t.Get(ctx, caller, id)
	if err != nil {
		return domain.PostPage{}, err
	}
	total, err := t.storage.CountPosts(ctx, id)
	if err != nil {
		return domain.PostPage{}, err
	}
	if page < 1 {
		unread, err := t.readState.UnreadCount(ctx, id, caller.Id)
		if err != nil {
			return domain.PostPage{}, err
		}
		firstUnread := total - unread + 1
		page = domain.PageOf(min(firstUnread, total), t.cfg.PostsPerPage)
	}
	p := domain.Paginate(total, t.cfg.PostsPerPage, page)

	posts, err := t.storage.ListPostsPage(ctx, id, p.Offset(), p.Limit())
	if err != nil {
		return domain.PostPage{}, err
	}
	moderator, err := t.moderation.CanModerate(ctx, caller, thread.Forum())
	if err != nil {
		return domain.PostPage{}, err
	}

	var newest time.Time
	for _, post := range posts {
		if post.ModifiedAt.After(newest) {
			newest = post.ModifiedAt
		}
	}
	if !newest.IsZero() {
		if err := t.readState.MarkRead(ctx, id, caller.Id, newest); err != nil {
			return domain.PostPage{}, err
		}
	}

	present(posts, caller, moderator, thread.LastPostId)
	return domain.PostPage{Thread: thread, Page: p, Posts: posts}, nil
}

// Remove deletes the whole thread. Only moderators of its forum may do it.
func (t *Thread) Remove(ctx context.Context, caller domain.User, id domain.ThreadId) error {
	thread, err := t.Get(ctx, caller, id)
	if err != nil {
		return err
	}
	ok, err := t.moderation.CanModerate(ctx, caller, thread.Forum())
	if err != nil {
		return err
	}
	if !ok {
		return internal_errors.Access("Only moderators of this forum can delete threads")
	}

	if err := t.storage.DeleteThread(ctx, id); err != nil {
		return err
	}
	if err := t.clipboard.DeleteClipboardsForThread(ctx, id); err != nil {
		// the thread is gone already, a stale entry only fails a later paste
		logger.FromContext(ctx).Warn("failed to drop clipboard entries of deleted thread", "thread_id", id, "error", err)
	}
	threadsRemoved.WithLabelValues(removedByModerator).Inc()
	logger.FromContext(ctx).Info("thread removed", "thread_id", id, "moderator_id", caller.Id)
	return nil
}
