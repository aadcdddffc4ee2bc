package service

import (
	"context"

	"github.com/itchan-dev/uniforum/shared/domain"
	internal_errors "github.com/itchan-dev/uniforum/shared/errors"
	"github.com/itchan-dev/uniforum/shared/logger"
)

type ModerationService interface {
	CanModerate(ctx context.Context, caller domain.User, forum domain.Forum) (bool, error)
	CanMove(ctx context.Context, caller domain.User) (bool, error)
	BanPost(ctx context.Context, caller domain.User, postId domain.PostId) error
	UnbanPost(ctx context.Context, caller domain.User, postId domain.PostId) error
	IsBanned(ctx context.Context, postId domain.PostId) (bool, error)
}

type ModerationStorage interface {
	GetPost(ctx context.Context, id domain.PostId) (domain.Post, error)
	GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error)
	BanPost(ctx context.Context, postId domain.PostId, moderatorId domain.UserId) error
	UnbanPost(ctx context.Context, postId domain.PostId) error
	IsBanned(ctx context.Context, postId domain.PostId) (bool, error)
}

// PermissionMask states which roles may delete threads and ban posts in each
// forum kind. It is read-only after initialization.
var PermissionMask = map[domain.ForumKind]domain.RoleSet{
	domain.ForumGlobalAll:           domain.NewRoleSet(domain.RoleSystemAdmin),
	domain.ForumGlobalTeachers:      domain.NewRoleSet(domain.RoleSystemAdmin),
	domain.ForumPlatformAll:         domain.NewRoleSet(domain.RoleSystemAdmin),
	domain.ForumPlatformTeachers:    domain.NewRoleSet(domain.RoleSystemAdmin),
	domain.ForumInstitutionAll:      domain.NewRoleSet(domain.RoleInstitutionAdmin, domain.RoleSystemAdmin),
	domain.ForumInstitutionTeachers: domain.NewRoleSet(domain.RoleInstitutionAdmin, domain.RoleSystemAdmin),
	domain.ForumCentreAll:           domain.NewRoleSet(domain.RoleCentreAdmin, domain.RoleInstitutionAdmin, domain.RoleSystemAdmin),
	domain.ForumCentreTeachers:      domain.NewRoleSet(domain.RoleCentreAdmin, domain.RoleInstitutionAdmin, domain.RoleSystemAdmin),
	domain.ForumDegreeAll:           domain.NewRoleSet(domain.RoleDegreeAdmin, domain.RoleCentreAdmin, domain.RoleInstitutionAdmin, domain.RoleSystemAdmin),
	domain.ForumDegreeTeachers:      domain.NewRoleSet(domain.RoleDegreeAdmin, domain.RoleCentreAdmin, domain.RoleInstitutionAdmin, domain.RoleSystemAdmin),
	domain.ForumCourseAll:           domain.NewRoleSet(domain.RoleTeacher, domain.RoleDegreeAdmin, domain.RoleCentreAdmin, domain.RoleInstitutionAdmin, domain.RoleSystemAdmin),
	domain.ForumCourseTeachers:      domain.NewRoleSet(domain.RoleTeacher, domain.RoleDegreeAdmin, domain.RoleCentreAdmin, domain.RoleInstitutionAdmin, domain.RoleSystemAdmin),
}

type Moderation struct {
	storage  ModerationStorage
	identity IdentityStorage
	forums   ForumService
}

func NewModeration(storage ModerationStorage, identity IdentityStorage, forums ForumService) *Moderation {
	return &Moderation{storage: storage, identity: identity, forums: forums}
}

func (m *Moderation) CanModerate(ctx context.Context, caller domain.User, forum domain.Forum) (bool, error) {
	role, err := effectiveRole(ctx, m.identity, caller, forum)
	if err != nil {
		return false, err
	}
	return PermissionMask[forum.Kind].Has(role), nil
}

// CanMove reports whether caller may cut and paste threads between forums.
func (m *Moderation) CanMove(ctx context.Context, caller domain.User) (bool, error) {
	return m.identity.IsSystemAdmin(ctx, caller.Id)
}

func (m *Moderation) BanPost(ctx context.Context, caller domain.User, postId domain.PostId) error {
	if err := m.requireModerator(ctx, caller, postId); err != nil {
		return err
	}
	if err := m.storage.BanPost(ctx, postId, caller.Id); err != nil {
		return err
	}
	postsBanned.Inc()
	logger.FromContext(ctx).Info("post banned", "post_id", postId, "moderator_id", caller.Id)
	return nil
}

func (m *Moderation) UnbanPost(ctx context.Context, caller domain.User, postId domain.PostId) error {
	if err := m.requireModerator(ctx, caller, postId); err != nil {
		return err
	}
	if err := m.storage.UnbanPost(ctx, postId); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("post unbanned", "post_id", postId, "moderator_id", caller.Id)
	return nil
}

func (m *Moderation) IsBanned(ctx context.Context, postId domain.PostId) (bool, error) {
	return m.storage.IsBanned(ctx, postId)
}

// requireModerator also guarantees that the post currently exists.
func (m *Moderation) requireModerator(ctx context.Context, caller domain.User, postId domain.PostId) error {
	post, err := m.storage.GetPost(ctx, postId)
	if err != nil {
		return err
	}
	thread, err := m.storage.GetThread(ctx, post.ThreadId)
	if err != nil {
		return err
	}
	if err := m.forums.Authorize(ctx, caller, thread.Forum()); err != nil {
		return err
	}
	ok, err := m.CanModerate(ctx, caller, thread.Forum())
	if err != nil {
		return err
	}
	if !ok {
		return internal_errors.Access("Only moderators of this forum can do that")
	}
	return nil
}

var redactedBodies = map[domain.Locale]string{
	"en": "This post has been disabled by a moderator.",
	"es": "Este mensaje ha sido deshabilitado por un moderador.",
	"ca": "Aquest missatge ha estat inhabilitat per un moderador.",
}

// RedactedBody is the placeholder shown instead of a banned post.
func RedactedBody(locale domain.Locale) string {
	if body, ok := redactedBodies[locale]; ok {
		return body
	}
	return redactedBodies["en"]
}

// present fills the caller dependent fields of views, withholding banned
// content from callers who do not moderate the forum.
func present(views []domain.PostView, caller domain.User, moderator bool, lastPostId domain.PostId) {
	for i := range views {
		v := &views[i]
		v.CanToggleBan = moderator
		v.CanRemove = v.Id == lastPostId && v.AuthorId == caller.Id
		if v.Banned && !moderator {
			v.Subject = ""
			v.Body = RedactedBody(caller.Locale)
			v.Attachment = nil
			v.Redacted = true
		}
	}
}
