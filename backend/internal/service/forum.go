package service

import (
	"context"
	"sort"

	"github.com/itchan-dev/uniforum/shared/domain"
	internal_errors "github.com/itchan-dev/uniforum/shared/errors"
)

// to mock service in tests
type ForumService interface {
	Resolve(ctx context.Context, caller domain.User, kind domain.ForumKind, location domain.LocationId) (domain.Forum, error)
	Authorize(ctx context.Context, caller domain.User, forum domain.Forum) error
	List(ctx context.Context, caller domain.User) ([]domain.ForumSummary, error)
}

// IdentityStorage is the identity/role port. It answers with the caller's
// maximum role at a location; for LocationNone it answers with the maximum
// role held anywhere.
type IdentityStorage interface {
	MaxRoleAt(ctx context.Context, userId domain.UserId, scope domain.Scope, location domain.LocationId) (domain.Role, error)
	IsSystemAdmin(ctx context.Context, userId domain.UserId) (bool, error)
	Memberships(ctx context.Context, userId domain.UserId) ([]domain.Membership, error)
}

type ForumStorage interface {
	CountThreads(ctx context.Context, forum domain.Forum) (int, error)
	ThreadsWithUnread(ctx context.Context, forum domain.Forum, userId domain.UserId) (int, error)
}

type Forum struct {
	identity IdentityStorage
	storage  ForumStorage
}

func NewForum(identity IdentityStorage, storage ForumStorage) *Forum {
	return &Forum{identity: identity, storage: storage}
}

// Resolve validates the (kind, location) pair and checks that caller may read the forum.
func (f *Forum) Resolve(ctx context.Context, caller domain.User, kind domain.ForumKind, location domain.LocationId) (domain.Forum, error) {
	forum, err := normalizeForum(kind, location)
	if err != nil {
		return domain.Forum{}, err
	}
	if err := f.Authorize(ctx, caller, forum); err != nil {
		return domain.Forum{}, err
	}
	return forum, nil
}

// Authorize checks read access to an already valid forum, e.g. the forum of a stored thread.
func (f *Forum) Authorize(ctx context.Context, caller domain.User, forum domain.Forum) error {
	role, err := effectiveRole(ctx, f.identity, caller, forum)
	if err != nil {
		return err
	}
	if !canRead(role, forum) {
		return internal_errors.Access("You don't have access to this forum")
	}
	return nil
}

// List returns the forums the caller can see with their thread counts and unread badges.
func (f *Forum) List(ctx context.Context, caller domain.User) ([]domain.ForumSummary, error) {
	isAdmin, err := f.identity.IsSystemAdmin(ctx, caller.Id)
	if err != nil {
		return nil, err
	}
	memberships, err := f.identity.Memberships(ctx, caller.Id)
	if err != nil {
		return nil, err
	}

	anywhere := domain.RoleUser
	if isAdmin {
		anywhere = domain.RoleSystemAdmin
	}
	for _, m := range memberships {
		anywhere = max(anywhere, m.Role)
	}

	var forums []domain.Forum
	for _, kind := range domain.KindsOf(domain.ScopeNone) {
		forum := domain.Forum{Kind: kind, Location: domain.LocationNone}
		if canRead(anywhere, forum) {
			forums = append(forums, forum)
		}
	}

	seen := make(map[domain.Forum]bool)
	for _, m := range memberships {
		role := m.Role
		if isAdmin {
			role = domain.RoleSystemAdmin
		}
		for _, kind := range domain.KindsOf(m.Scope) {
			forum := domain.Forum{Kind: kind, Location: m.Location}
			if m.Scope == domain.ScopeNone || seen[forum] || !canRead(role, forum) {
				continue
			}
			seen[forum] = true
			forums = append(forums, forum)
		}
	}

	order := make(map[domain.ForumKind]int, len(domain.AllForumKinds))
	for i, kind := range domain.AllForumKinds {
		order[kind] = i
	}
	sort.SliceStable(forums, func(i, j int) bool {
		if forums[i].Kind != forums[j].Kind {
			return order[forums[i].Kind] < order[forums[j].Kind]
		}
		return forums[i].Location < forums[j].Location
	})

	summaries := make([]domain.ForumSummary, 0, len(forums))
	for _, forum := range forums {
		numThreads, err := f.storage.CountThreads(ctx, forum)
		if err != nil {
			return nil, err
		}
		unread, err := f.storage.ThreadsWithUnread(ctx, forum, caller.Id)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, domain.ForumSummary{Forum: forum, NumThreads: numThreads, ThreadsWithUnread: unread})
	}
	return summaries, nil
}

func normalizeForum(kind domain.ForumKind, location domain.LocationId) (domain.Forum, error) {
	if !kind.Valid() {
		return domain.Forum{}, internal_errors.Validation("Unknown forum kind")
	}
	if !kind.HasLocation() {
		return domain.Forum{Kind: kind, Location: domain.LocationNone}, nil
	}
	if location <= 0 {
		return domain.Forum{}, internal_errors.Validation("Forum location is required")
	}
	return domain.Forum{Kind: kind, Location: location}, nil
}

// effectiveRole is the caller's role for forum, system administrators always
// resolving to RoleSystemAdmin.
func effectiveRole(ctx context.Context, identity IdentityStorage, caller domain.User, forum domain.Forum) (domain.Role, error) {
	isAdmin, err := identity.IsSystemAdmin(ctx, caller.Id)
	if err != nil {
		return domain.RoleUnknown, err
	}
	if isAdmin {
		return domain.RoleSystemAdmin, nil
	}
	role, err := identity.MaxRoleAt(ctx, caller.Id, forum.Kind.Scope(), forum.Location)
	if err != nil {
		return domain.RoleUnknown, err
	}
	return role, nil
}

func canRead(role domain.Role, forum domain.Forum) bool {
	if role == domain.RoleSystemAdmin {
		return true
	}
	switch forum.Kind.Audience() {
	case domain.AudienceTeachersOnly:
		return role.CanTeach()
	default:
		if !forum.Kind.HasLocation() {
			return role >= domain.RoleUser
		}
		return role.IsMember()
	}
}
