package domain

// User is the caller of a request. It is built by the auth middleware and
// passed explicitly to every service call.
type User struct {
	Id     UserId
	Admin  bool
	Locale Locale
}

type Role int

// Roles are ordered: a greater role includes the capabilities of the lesser ones.
const (
	RoleUnknown Role = iota
	RoleGuest
	RoleUser
	RoleStudent
	RoleNonEditingTeacher
	RoleTeacher
	RoleDegreeAdmin
	RoleCentreAdmin
	RoleInstitutionAdmin
	RoleSystemAdmin
)

var roleNames = [...]string{
	RoleUnknown:           "unknown",
	RoleGuest:             "guest",
	RoleUser:              "user",
	RoleStudent:           "student",
	RoleNonEditingTeacher: "non-editing-teacher",
	RoleTeacher:           "teacher",
	RoleDegreeAdmin:       "degree-admin",
	RoleCentreAdmin:       "centre-admin",
	RoleInstitutionAdmin:  "institution-admin",
	RoleSystemAdmin:       "system-admin",
}

func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return "unknown"
	}
	return roleNames[r]
}

func (r Role) IsMember() bool { return r >= RoleStudent }

func (r Role) CanTeach() bool { return r >= RoleNonEditingTeacher }

type RoleSet map[Role]struct{}

func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// Membership is the role a user holds at one location.
type Membership struct {
	Scope    Scope
	Location LocationId
	Role     Role
}
