package pg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/itchan-dev/uniforum/shared/domain"
	internal_errors "github.com/itchan-dev/uniforum/shared/errors"
)

// =========================================================================
// Public Methods (satisfy the service storage interfaces)
// =========================================================================

// CreateThread inserts the thread and its first post in one transaction, so
// a thread is never visible without posts.
func (s *Storage) CreateThread(ctx context.Context, data domain.ThreadCreationData, createdAt time.Time) (domain.ThreadId, domain.PostId, error) {
	var threadId domain.ThreadId
	var postId domain.PostId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			"INSERT INTO threads (kind, location) VALUES ($1, $2) RETURNING id",
			data.Forum.Kind, data.Forum.Location,
		).Scan(&threadId)
		if err != nil {
			return fmt.Errorf("failed to insert thread: %w", err)
		}

		data.OpPost.ThreadId = threadId
		postId, err = s.insertPost(ctx, tx, data.OpPost, createdAt)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE threads SET first_post_id = $1, last_post_id = $1 WHERE id = $2",
			postId, threadId,
		)
		if err != nil {
			return fmt.Errorf("failed to set first post: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return threadId, postId, nil
}

func (s *Storage) GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	return s.getThread(ctx, s.db, id, false)
}

// DeleteThread removes the thread. Posts, disabled markers, read marks and
// clipboard rows go with it through ON DELETE CASCADE.
func (s *Storage) DeleteThread(ctx context.Context, id domain.ThreadId) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.deleteThread(ctx, tx, id)
	})
}

func (s *Storage) CountThreads(ctx context.Context, forum domain.Forum) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM threads WHERE kind = $1 AND location = $2",
		forum.Kind, forum.Location,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count threads: %w", err)
	}
	return n, nil
}

// ListThreadsPage returns summaries of the forum's threads, newest first by
// the chosen order, with unread counts relative to userId's read marks.
func (s *Storage) ListThreadsPage(ctx context.Context, forum domain.Forum, userId domain.UserId, order domain.ThreadOrder, offset, limit int) ([]domain.ThreadSummary, error) {
	orderBy := "lp.created_at DESC, t.id DESC"
	if order == domain.ThreadOrderFirstPost {
		orderBy = "fp.created_at DESC, t.id DESC"
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT
			t.id, t.kind, t.location, t.first_post_id, t.last_post_id,
			fp.subject, fp.author_id, lp.author_id, fp.created_at, lp.created_at,
			(SELECT COUNT(*) FROM posts p WHERE p.thread_id = t.id),
			(SELECT COUNT(*) FROM posts p WHERE p.thread_id = t.id
				AND (rm.read_at IS NULL OR p.modified_at > rm.read_at)),
			EXISTS (SELECT 1 FROM disabled_posts d WHERE d.post_id = t.first_post_id)
		FROM threads t
		JOIN posts fp ON fp.id = t.first_post_id
		JOIN posts lp ON lp.id = t.last_post_id
		LEFT JOIN read_marks rm ON rm.thread_id = t.id AND rm.user_id = $3
		WHERE t.kind = $1 AND t.location = $2
		ORDER BY %s
		OFFSET $4 LIMIT $5`, orderBy),
		forum.Kind, forum.Location, userId, offset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	defer rows.Close()

	var threads []domain.ThreadSummary
	for rows.Next() {
		var t domain.ThreadSummary
		if err := rows.Scan(
			&t.Id, &t.Kind, &t.Location, &t.FirstPostId, &t.LastPostId,
			&t.Subject, &t.FirstAuthor, &t.LastAuthor, &t.FirstPostAt, &t.LastPostAt,
			&t.NumPosts, &t.NumUnread, &t.FirstBanned,
		); err != nil {
			return nil, fmt.Errorf("failed to scan thread summary: %w", err)
		}
		threads = append(threads, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating threads: %w", err)
	}
	return threads, nil
}

// MoveThread changes the forum of a thread. Nothing else ever changes it.
func (s *Storage) MoveThread(ctx context.Context, id domain.ThreadId, to domain.Forum) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE threads SET kind = $1, location = $2 WHERE id = $3",
		to.Kind, to.Location, id,
	)
	if err != nil {
		return fmt.Errorf("failed to move thread: %w", err)
	}
	return requireAffected(result, "Thread")
}

// DeleteThreadsAt removes every thread of kinds at location in one transaction.
func (s *Storage) DeleteThreadsAt(ctx context.Context, kinds []domain.ForumKind, location domain.LocationId) ([]domain.ThreadId, error) {
	var removed []domain.ThreadId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			"DELETE FROM threads WHERE kind = ANY($1) AND location = $2 RETURNING id",
			kindsArray(kinds), location,
		)
		if err != nil {
			return fmt.Errorf("failed to delete threads: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var id domain.ThreadId
			if err := rows.Scan(&id); err != nil {
				return fmt.Errorf("failed to scan deleted thread id: %w", err)
			}
			removed = append(removed, id)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// =========================================================================
// Internal Methods (Core Database Logic)
// These methods accept a Querier and are transaction-agnostic.
// =========================================================================

func (s *Storage) getThread(ctx context.Context, q Querier, id domain.ThreadId, forUpdate bool) (domain.Thread, error) {
	query := "SELECT id, kind, location, first_post_id, last_post_id FROM threads WHERE id = $1"
	if forUpdate {
		query += " FOR UPDATE"
	}
	var t domain.Thread
	err := q.QueryRowContext(ctx, query, id).Scan(&t.Id, &t.Kind, &t.Location, &t.FirstPostId, &t.LastPostId)
	if err != nil {
		return domain.Thread{}, notFound(err, "Thread")
	}
	return t, nil
}

func (s *Storage) deleteThread(ctx context.Context, q Querier, id domain.ThreadId) error {
	result, err := q.ExecContext(ctx, "DELETE FROM threads WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}
	return requireAffected(result, "Thread")
}

func requireAffected(result sql.Result, what string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return internal_errors.NotFound(what)
	}
	return nil
}
