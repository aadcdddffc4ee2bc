package domain

import (
	"fmt"
)

// Scope is the kind of organizational entity a forum location refers to.
type Scope int

const (
	ScopeNone Scope = iota
	ScopeInstitution
	ScopeCentre
	ScopeDegree
	ScopeCourse
)

var scopeNames = map[Scope]string{
	ScopeNone:        "none",
	ScopeInstitution: "institution",
	ScopeCentre:      "centre",
	ScopeDegree:      "degree",
	ScopeCourse:      "course",
}

func (s Scope) String() string {
	if name, ok := scopeNames[s]; ok {
		return name
	}
	return "unknown"
}

func ParseScope(s string) (Scope, bool) {
	for scope, name := range scopeNames {
		if name == s {
			return scope, true
		}
	}
	return ScopeNone, false
}

// Audience tells who may read a forum at its location.
type Audience int

const (
	AudienceAllUsers Audience = iota
	AudienceTeachersOnly
)

type ForumKind int

const (
	ForumUnknown ForumKind = iota
	ForumGlobalAll
	ForumGlobalTeachers
	ForumPlatformAll
	ForumPlatformTeachers
	ForumInstitutionAll
	ForumInstitutionTeachers
	ForumCentreAll
	ForumCentreTeachers
	ForumDegreeAll
	ForumDegreeTeachers
	ForumCourseAll
	ForumCourseTeachers
)

type forumKindInfo struct {
	name     string
	scope    Scope
	audience Audience
}

var forumKinds = map[ForumKind]forumKindInfo{
	ForumGlobalAll:           {"global-all", ScopeNone, AudienceAllUsers},
	ForumGlobalTeachers:      {"global-teachers", ScopeNone, AudienceTeachersOnly},
	ForumPlatformAll:         {"platform-all", ScopeNone, AudienceAllUsers},
	ForumPlatformTeachers:    {"platform-teachers", ScopeNone, AudienceTeachersOnly},
	ForumInstitutionAll:      {"institution-all", ScopeInstitution, AudienceAllUsers},
	ForumInstitutionTeachers: {"institution-teachers", ScopeInstitution, AudienceTeachersOnly},
	ForumCentreAll:           {"centre-all", ScopeCentre, AudienceAllUsers},
	ForumCentreTeachers:      {"centre-teachers", ScopeCentre, AudienceTeachersOnly},
	ForumDegreeAll:           {"degree-all", ScopeDegree, AudienceAllUsers},
	ForumDegreeTeachers:      {"degree-teachers", ScopeDegree, AudienceTeachersOnly},
	ForumCourseAll:           {"course-all", ScopeCourse, AudienceAllUsers},
	ForumCourseTeachers:      {"course-teachers", ScopeCourse, AudienceTeachersOnly},
}

// AllForumKinds lists the known kinds in display order.
var AllForumKinds = []ForumKind{
	ForumGlobalAll, ForumGlobalTeachers,
	ForumPlatformAll, ForumPlatformTeachers,
	ForumInstitutionAll, ForumInstitutionTeachers,
	ForumCentreAll, ForumCentreTeachers,
	ForumDegreeAll, ForumDegreeTeachers,
	ForumCourseAll, ForumCourseTeachers,
}

func (k ForumKind) Valid() bool {
	_, ok := forumKinds[k]
	return ok
}

func (k ForumKind) String() string {
	if info, ok := forumKinds[k]; ok {
		return info.name
	}
	return "unknown"
}

func (k ForumKind) Scope() Scope {
	return forumKinds[k].scope
}

func (k ForumKind) Audience() Audience {
	return forumKinds[k].audience
}

// HasLocation reports whether forums of this kind are attached to an entity.
func (k ForumKind) HasLocation() bool {
	return k.Valid() && k.Scope() != ScopeNone
}

// ParseForumKind returns ForumUnknown for unrecognised names.
func ParseForumKind(s string) ForumKind {
	for kind, info := range forumKinds {
		if info.name == s {
			return kind
		}
	}
	return ForumUnknown
}

func (k ForumKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ForumKind) UnmarshalText(text []byte) error {
	kind := ParseForumKind(string(text))
	if kind == ForumUnknown {
		return fmt.Errorf("unknown forum kind %q", text)
	}
	*k = kind
	return nil
}

// KindsOf returns both kinds (all users and teachers only) attached to scope.
func KindsOf(scope Scope) []ForumKind {
	var kinds []ForumKind
	for _, kind := range AllForumKinds {
		if kind.Scope() == scope {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// Forum is one discussion space. It is not stored: it exists through the threads referencing it.
type Forum struct {
	Kind     ForumKind
	Location LocationId
}

func (f Forum) String() string {
	if f.Location == LocationNone {
		return f.Kind.String()
	}
	return fmt.Sprintf("%s/%d", f.Kind, f.Location)
}

// ForumSummary is a row of the forum list.
type ForumSummary struct {
	Forum
	NumThreads        int
	ThreadsWithUnread int
}
