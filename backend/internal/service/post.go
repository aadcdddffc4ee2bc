package service

import (
	"context"
	"time"

	"github.com/itchan-dev/uniforum/shared/domain"
	internal_errors "github.com/itchan-dev/uniforum/shared/errors"
	"github.com/itchan-dev/uniforum/shared/logger"
)

type PostService interface {
	Reply(ctx context.Context, caller domain.User, data domain.PostCreationData) (domain.PostId, error)
	Get(ctx context.Context, caller domain.User, id domain.PostId) (domain.PostView, error)
	RemoveTrailing(ctx context.Context, caller domain.User, id domain.PostId) (domain.RemovePostResult, error)
}

type PostStorage interface {
	// CreatePost appends a reply and makes it the thread's last post.
	CreatePost(ctx context.Context, data domain.PostCreationData, createdAt time.Time) (domain.PostId, error)
	GetPost(ctx context.Context, id domain.PostId) (domain.Post, error)
	GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error)
	IsBanned(ctx context.Context, id domain.PostId) (bool, error)
	// DeleteTrailingPost removes the post if it is still the last post of the
	// thread, deleting the thread when nothing remains. It fails with a
	// conflict if another post became the last one in the meantime.
	DeleteTrailingPost(ctx context.Context, threadId domain.ThreadId, postId domain.PostId) (threadDeleted bool, err error)
}

type Post struct {
	storage    PostStorage
	forums     ForumService
	moderation ModerationService
	validator  PostValidator
	notifier   Notifier
	clipboard  ClipboardCleaner
	now        func() time.Time
}

func NewPost(
	storage PostStorage,
	forums ForumService,
	moderation ModerationService,
	validator PostValidator,
	notifier Notifier,
	clipboard ClipboardCleaner,
) *Post {
	return &Post{
		storage:    storage,
		forums:     forums,
		moderation: moderation,
		validator:  validator,
		notifier:   notifier,
		clipboard:  clipboard,
		now:        time.Now,
	}
}

func (p *Post) Reply(ctx context.Context, caller domain.User, data domain.PostCreationData) (domain.PostId, error) {
	thread, err := p.storage.GetThread(ctx, data.ThreadId)
	if err != nil {
		return 0, err
	}
	if err := p.forums.Authorize(ctx, caller, thread.Forum()); err != nil {
		return 0, err
	}
	subject, body, err := p.validator.Content(string(data.Subject), string(data.Body))
	if err != nil {
		return 0, err
	}
	attachment, err := p.validator.Attachment(data.Attachment)
	if err != nil {
		return 0, err
	}

	data.AuthorId = caller.Id
	data.Subject = subject
	data.Body = body
	data.Attachment = attachment

	id, err := p.storage.CreatePost(ctx, data, p.now().UTC())
	if err != nil {
		return 0, err
	}
	postsCreated.Inc()
	logger.FromContext(ctx).Info("reply posted", "thread_id", thread.Id, "post_id", id)

	p.notifier.NotifyNewPost(ctx, id, domain.NotificationAudience{Forum: thread.Forum(), ThreadId: thread.Id, AuthorId: caller.Id})
	return id, nil
}

func (p *Post) Get(ctx context.Context, caller domain.User, id domain.PostId) (domain.PostView, error) {
	post, err := p.storage.GetPost(ctx, id)
	if err != nil {
		return domain.PostView{}, err
	}
	thread, err := p.storage.GetThread(ctx, post.ThreadId)
	if err != nil {
		return domain.PostView{}, err
	}
	if err := p.forums.Authorize(ctx, caller, thread.Forum()); err != nil {
		return domain.PostView{}, err
	}
	banned, err := p.storage.IsBanned(ctx, id)
	if err != nil {
		return domain.PostView{}, err
	}
	moderator, err := p.moderation.CanModerate(ctx, caller, thread.Forum())
	if err != nil {
		return domain.PostView{}, err
	}

	views := []domain.PostView{{Post: post, Banned: banned}}
	present(views, caller, moderator, thread.LastPostId)
	return views[0], nil
}

// RemoveTrailing retracts the caller's own post. Only the last post of a
// thread can be retracted; retracting the only post deletes the thread.
func (p *Post) RemoveTrailing(ctx context.Context, caller domain.User, id domain.PostId) (domain.RemovePostResult, error) {
	post, err := p.storage.GetPost(ctx, id)
	if err != nil {
		return domain.RemovePostResult{}, err
	}
	thread, err := p.storage.GetThread(ctx, post.ThreadId)
	if err != nil {
		return domain.RemovePostResult{}, err
	}
	if err := p.forums.Authorize(ctx, caller, thread.Forum()); err != nil {
		return domain.RemovePostResult{}, err
	}
	if post.AuthorId != caller.Id {
		return domain.RemovePostResult{}, internal_errors.Access("Only the author can remove a post")
	}
	if thread.LastPostId != post.Id {
		return domain.RemovePostResult{}, internal_errors.InvalidState("Only the last post of a thread can be removed")
	}

	threadDeleted, err := p.storage.DeleteTrailingPost(ctx, thread.Id, post.Id)
	if err != nil {
		return domain.RemovePostResult{}, err
	}
	postsRemoved.Inc()

	log := logger.FromContext(ctx)
	if threadDeleted {
		if err := p.clipboard.DeleteClipboardsForThread(ctx, thread.Id); err != nil {
			log.Warn("failed to drop clipboard entries of deleted thread", "thread_id", thread.Id, "error", err)
		}
		threadsRemoved.WithLabelValues(removedLastPost).Inc()
	}
	log.Info("post removed", "thread_id", thread.Id, "post_id", id, "thread_deleted", threadDeleted)
	return domain.RemovePostResult{ThreadId: thread.Id, ThreadDeleted: threadDeleted}, nil
}
