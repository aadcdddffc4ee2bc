package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/itchan-dev/uniforum/shared/domain"
	internal_errors "github.com/itchan-dev/uniforum/shared/errors"
)

// =========================================================================
// Public Methods (satisfy the service storage interfaces)
// =========================================================================

// CreatePost appends a reply. The thread row is locked so that concurrent
// replies and retractions see a consistent last post.
func (s *Storage) CreatePost(ctx context.Context, data domain.PostCreationData, createdAt time.Time) (domain.PostId, error) {
	var id domain.PostId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.getThread(ctx, tx, data.ThreadId, true); err != nil {
			return err
		}
		var err error
		id, err = s.insertPost(ctx, tx, data, createdAt)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, "UPDATE threads SET last_post_id = $1 WHERE id = $2", id, data.ThreadId)
		if err != nil {
			return fmt.Errorf("failed to update last post: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Storage) GetPost(ctx context.Context, id domain.PostId) (domain.Post, error) {
	var p domain.Post
	err := s.db.QueryRowContext(ctx, `
		SELECT id, thread_id, author_id, created_at, modified_at, subject, body, attachment, notified_count
		FROM posts
		WHERE id = $1`, id,
	).Scan(&p.Id, &p.ThreadId, &p.AuthorId, &p.CreatedAt, &p.ModifiedAt, &p.Subject, &p.Body, &p.Attachment, &p.NotifiedCount)
	if err != nil {
		return domain.Post{}, notFound(err, "Post")
	}
	return p, nil
}

func (s *Storage) CountPosts(ctx context.Context, threadId domain.ThreadId) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts WHERE thread_id = $1", threadId).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return n, nil
}

// ListPostsPage returns posts of the thread in insertion order with their banned status.
func (s *Storage) ListPostsPage(ctx context.Context, threadId domain.ThreadId, offset, limit int) ([]domain.PostView, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			p.id, p.thread_id, p.author_id, p.created_at, p.modified_at,
			p.subject, p.body, p.attachment, p.notified_count,
			d.post_id IS NOT NULL
		FROM posts p
		LEFT JOIN disabled_posts d ON d.post_id = p.id
		WHERE p.thread_id = $1
		ORDER BY p.id
		OFFSET $2 LIMIT $3`,
		threadId, offset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.PostView
	for rows.Next() {
		var v domain.PostView
		if err := rows.Scan(
			&v.Id, &v.ThreadId, &v.AuthorId, &v.CreatedAt, &v.ModifiedAt,
			&v.Subject, &v.Body, &v.Attachment, &v.NotifiedCount,
			&v.Banned,
		); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}
	return posts, nil
}

// DeleteTrailingPost rechecks under a row lock that postId is still the last
// post of the thread. When it is the only post the whole thread is deleted;
// otherwise the remaining post with the highest id becomes the last one.
func (s *Storage) DeleteTrailingPost(ctx context.Context, threadId domain.ThreadId, postId domain.PostId) (bool, error) {
	var threadDeleted bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		thread, err := s.getThread(ctx, tx, threadId, true)
		if err != nil {
			return err
		}
		if thread.LastPostId != postId {
			return internal_errors.Conflict("Post is no longer the last post of the thread")
		}

		var newLast domain.PostId
		err = tx.QueryRowContext(ctx, `
			SELECT id FROM posts
			WHERE thread_id = $1 AND id <> $2
			ORDER BY id DESC
			LIMIT 1`,
			threadId, postId,
		).Scan(&newLast)
		if errors.Is(err, sql.ErrNoRows) {
			threadDeleted = true
			return s.deleteThread(ctx, tx, threadId)
		}
		if err != nil {
			return fmt.Errorf("failed to find previous post: %w", err)
		}

		if _, err := tx.ExecContext(ctx, "UPDATE threads SET last_post_id = $1 WHERE id = $2", newLast, threadId); err != nil {
			return fmt.Errorf("failed to update last post: %w", err)
		}
		// the disabled marker cascades with the post
		if _, err := tx.ExecContext(ctx, "DELETE FROM posts WHERE id = $1", postId); err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return threadDeleted, nil
}

// ThreadRecipients returns the addresses of everyone who posted in the thread except one user.
func (s *Storage) ThreadRecipients(ctx context.Context, threadId domain.ThreadId, except domain.UserId) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT u.email
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.thread_id = $1 AND p.author_id <> $2
		ORDER BY u.email`,
		threadId, except,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query thread recipients: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("failed to scan recipient: %w", err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipients: %w", err)
	}
	return emails, nil
}

func (s *Storage) AddNotifiedCount(ctx context.Context, id domain.PostId, n int) error {
	result, err := s.db.ExecContext(ctx, "UPDATE posts SET notified_count = notified_count + $1 WHERE id = $2", n, id)
	if err != nil {
		return fmt.Errorf("failed to update notified count: %w", err)
	}
	return requireAffected(result, "Post")
}

// =========================================================================
// Internal Methods (Core Database Logic)
// =========================================================================

func (s *Storage) insertPost(ctx context.Context, q Querier, data domain.PostCreationData, createdAt time.Time) (domain.PostId, error) {
	var id domain.PostId
	err := q.QueryRowContext(ctx, `
		INSERT INTO posts (thread_id, author_id, created_at, modified_at, subject, body, attachment)
		VALUES ($1, $2, $3, $3, $4, $5, $6)
		RETURNING id`,
		data.ThreadId, data.AuthorId, createdAt, data.Subject, data.Body, data.Attachment,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert post: %w", err)
	}
	return id, nil
}
