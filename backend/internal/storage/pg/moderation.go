package pg

import (
	"context"
	"fmt"

	"github.com/itchan-dev/uniforum/shared/domain"
	internal_errors "github.com/itchan-dev/uniforum/shared/errors"
)

// BanPost adds the post to the disabled set. Banning again only records the
// latest moderator and time.
func (s *Storage) BanPost(ctx context.Context, postId domain.PostId, moderatorId domain.UserId) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO disabled_posts (post_id, moderator_id, banned_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (post_id)
		DO UPDATE SET moderator_id = EXCLUDED.moderator_id, banned_at = EXCLUDED.banned_at`,
		postId, moderatorId,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return internal_errors.NotFound("Post")
		}
		return fmt.Errorf("failed to ban post: %w", err)
	}
	return nil
}

func (s *Storage) UnbanPost(ctx context.Context, postId domain.PostId) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM disabled_posts WHERE post_id = $1", postId); err != nil {
		return fmt.Errorf("failed to unban post: %w", err)
	}
	return nil
}

func (s *Storage) IsBanned(ctx context.Context, postId domain.PostId) (bool, error) {
	var banned bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM disabled_posts WHERE post_id = $1)", postId).Scan(&banned)
	if err != nil {
		return false, fmt.Errorf("failed to check banned status: %w", err)
	}
	return banned, nil
}

func (s *Storage) GetDisabledPost(ctx context.Context, postId domain.PostId) (domain.DisabledPost, error) {
	d := domain.DisabledPost{PostId: postId}
	err := s.db.QueryRowContext(ctx,
		"SELECT moderator_id, banned_at FROM disabled_posts WHERE post_id = $1", postId,
	).Scan(&d.ModeratorId, &d.BannedAt)
	if err != nil {
		return domain.DisabledPost{}, notFound(err, "Disabled post")
	}
	return d, nil
}
