package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/itchan-dev/uniforum/shared/domain"
	internal_errors "github.com/itchan-dev/uniforum/shared/errors"
)

// UpsertClipboard replaces the user's single entry.
func (s *Storage) UpsertClipboard(ctx context.Context, entry domain.ClipboardEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clipboard (user_id, thread_id, inserted_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET thread_id = EXCLUDED.thread_id, inserted_at = EXCLUDED.inserted_at`,
		entry.UserId, entry.ThreadId, entry.InsertedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return internal_errors.NotFound("Thread")
		}
		return fmt.Errorf("failed to upsert clipboard: %w", err)
	}
	return nil
}

func (s *Storage) GetClipboard(ctx context.Context, userId domain.UserId) (domain.ClipboardEntry, error) {
	entry := domain.ClipboardEntry{UserId: userId}
	err := s.db.QueryRowContext(ctx,
		"SELECT thread_id, inserted_at FROM clipboard WHERE user_id = $1", userId,
	).Scan(&entry.ThreadId, &entry.InsertedAt)
	if err != nil {
		return domain.ClipboardEntry{}, notFound(err, "Clipboard entry")
	}
	return entry, nil
}

func (s *Storage) DeleteExpiredClipboards(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM clipboard WHERE inserted_at < $1", olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to purge clipboard: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return n, nil
}

// DeleteClipboardsForThread is a no-op for rows already removed by the
// thread's cascade.
func (s *Storage) DeleteClipboardsForThread(ctx context.Context, threadId domain.ThreadId) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM clipboard WHERE thread_id = $1", threadId); err != nil {
		return fmt.Errorf("failed to delete clipboard entries: %w", err)
	}
	return nil
}

func (s *Storage) DeleteClipboard(ctx context.Context, userId domain.UserId) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM clipboard WHERE user_id = $1", userId); err != nil {
		return fmt.Errorf("failed to delete clipboard entry: %w", err)
	}
	return nil
}
