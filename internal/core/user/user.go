package user

import "time"

type Role string

const (
	RoleSeeker    Role = "seeker"
	RoleRecruiter Role = "recruiter"
)

func (r Role) Valid() bool {
	return r == RoleSeeker || r == RoleRecruiter
}

// User is the authenticated principal. Admin rights come from IsStaff and are
// independent of Role.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone,omitempty"`
	Role      Role      `json:"role"`
	IsStaff   bool      `json:"is_staff"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func IsRecruiter(u *User) bool {
	return u != nil && u.Role == RoleRecruiter
}

func IsAdmin(u *User) bool {
	return u != nil && u.IsStaff
}

// CanAccessOwned reports whether u may read a resource owned by ownerID.
func CanAccessOwned(u *User, ownerID int64) bool {
	if u == nil {
		return false
	}
	return IsAdmin(u) || u.ID == ownerID
}
