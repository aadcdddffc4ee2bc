package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/itchan-dev/uniforum/shared/domain"
)

// UpsertReadMark stores the mark, keeping the later of the stored and the
// new time so that concurrent readers never move it backwards.
func (s *Storage) UpsertReadMark(ctx context.Context, threadId domain.ThreadId, userId domain.UserId, readAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO read_marks (thread_id, user_id, read_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (thread_id, user_id)
		DO UPDATE SET read_at = GREATEST(read_marks.read_at, EXCLUDED.read_at)`,
		threadId, userId, readAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert read mark: %w", err)
	}
	return nil
}

func (s *Storage) GetReadMark(ctx context.Context, threadId domain.ThreadId, userId domain.UserId) (domain.ReadMark, error) {
	mark := domain.ReadMark{ThreadId: threadId, UserId: userId}
	err := s.db.QueryRowContext(ctx,
		"SELECT read_at FROM read_marks WHERE thread_id = $1 AND user_id = $2",
		threadId, userId,
	).Scan(&mark.ReadAt)
	if err != nil {
		return domain.ReadMark{}, notFound(err, "Read mark")
	}
	return mark, nil
}

func (s *Storage) CountPostsModifiedAfter(ctx context.Context, threadId domain.ThreadId, after time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM posts WHERE thread_id = $1 AND modified_at > $2",
		threadId, after,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread posts: %w", err)
	}
	return n, nil
}

// ThreadsWithUnread compares every thread of the forum with the user's single
// latest read mark in that forum, not with each thread's own mark.
func (s *Storage) ThreadsWithUnread(ctx context.Context, forum domain.Forum, userId domain.UserId) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		WITH latest AS (
			SELECT MAX(rm.read_at) AS read_at
			FROM read_marks rm
			JOIN threads t ON t.id = rm.thread_id
			WHERE rm.user_id = $3 AND t.kind = $1 AND t.location = $2
		)
		SELECT COUNT(*)
		FROM threads t, latest
		WHERE t.kind = $1 AND t.location = $2
			AND EXISTS (
				SELECT 1 FROM posts p
				WHERE p.thread_id = t.id
					AND (latest.read_at IS NULL OR p.modified_at > latest.read_at)
			)`,
		forum.Kind, forum.Location, userId,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count threads with unread posts: %w", err)
	}
	return n, nil
}

func (s *Storage) DeleteReadMarksForThread(ctx context.Context, threadId domain.ThreadId) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM read_marks WHERE thread_id = $1", threadId); err != nil {
		return fmt.Errorf("failed to delete read marks: %w", err)
	}
	return nil
}

func (s *Storage) DeleteReadMarksForUser(ctx context.Context, userId domain.UserId) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM read_marks WHERE user_id = $1", userId)
	if err != nil {
		return 0, fmt.Errorf("failed to delete read marks: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return n, nil
}
