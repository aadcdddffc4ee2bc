package service

import (
	"context"

	"github.com/itchan-dev/uniforum/shared/domain"
	internal_errors "github.com/itchan-dev/uniforum/shared/errors"
	"github.com/itchan-dev/uniforum/shared/logger"
)

// PurgeService is called by the workflows owning locations and users when
// those are removed from the platform.
type PurgeService interface {
	RemoveForumsAt(ctx context.Context, caller domain.User, scope domain.Scope, location domain.LocationId) (int, error)
	PurgeUser(ctx context.Context, caller domain.User, userId domain.UserId) error
}

type PurgeStorage interface {
	// DeleteThreadsAt removes every thread of the given kinds at location with
	// the same cascade as DeleteThread and returns the ids removed.
	DeleteThreadsAt(ctx context.Context, kinds []domain.ForumKind, location domain.LocationId) ([]domain.ThreadId, error)
	DeleteReadMarksForUser(ctx context.Context, userId domain.UserId) (int64, error)
}

type PurgeClipboard interface {
	ClipboardCleaner
	DeleteClipboard(ctx context.Context, userId domain.UserId) error
}

type Purge struct {
	storage   PurgeStorage
	identity  IdentityStorage
	clipboard PurgeClipboard
}

func NewPurge(storage PurgeStorage, identity IdentityStorage, clipboard PurgeClipboard) *Purge {
	return &Purge{storage: storage, identity: identity, clipboard: clipboard}
}

func (p *Purge) RemoveForumsAt(ctx context.Context, caller domain.User, scope domain.Scope, location domain.LocationId) (int, error) {
	if err := p.requireAdmin(ctx, caller); err != nil {
		return 0, err
	}
	if scope == domain.ScopeNone || location <= 0 {
		return 0, internal_errors.Validation("A scope and a location are required")
	}

	removed, err := p.storage.DeleteThreadsAt(ctx, domain.KindsOf(scope), location)
	if err != nil {
		return 0, err
	}
	log := logger.FromContext(ctx)
	for _, id := range removed {
		if err := p.clipboard.DeleteClipboardsForThread(ctx, id); err != nil {
			log.Warn("failed to drop clipboard entries of deleted thread", "thread_id", id, "error", err)
		}
	}
	threadsRemoved.WithLabelValues(removedLocation).Add(float64(len(removed)))
	log.Info("forums removed", "scope", scope.String(), "location", location, "threads", len(removed))
	return len(removed), nil
}

func (p *Purge) PurgeUser(ctx context.Context, caller domain.User, userId domain.UserId) error {
	if err := p.requireAdmin(ctx, caller); err != nil {
		return err
	}
	marks, err := p.storage.DeleteReadMarksForUser(ctx, userId)
	if err != nil {
		return err
	}
	if err := p.clipboard.DeleteClipboard(ctx, userId); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("user forum state purged", "user_id", userId, "read_marks", marks)
	return nil
}

func (p *Purge) requireAdmin(ctx context.Context, caller domain.User) error {
	ok, err := p.identity.IsSystemAdmin(ctx, caller.Id)
	if err != nil {
		return err
	}
	if !ok {
		return internal_errors.Access("Admin access required")
	}
	return nil
}
