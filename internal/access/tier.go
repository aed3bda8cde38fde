package access

import "github.com/Skotchmaster/course_market/internal/models"

// Tier is the ordinal privilege level of a request. It is never persisted.
type Tier int

const (
	TierAnonymous Tier = iota
	TierUser
	TierTeacher
	TierAdmin
)

var (
	LoggedIn = []Tier{TierUser, TierTeacher, TierAdmin}
	Staff    = []Tier{TierTeacher, TierAdmin}
	Admins   = []Tier{TierAdmin}
	Students = []Tier{TierUser}
)

func (t Tier) String() string {
	switch t {
	case TierUser:
		return "user"
	case TierTeacher:
		return "teacher"
	case TierAdmin:
		return "admin"
	default:
		return "anonymous"
	}
}

// ClassifyRole maps a stored role to its tier. Unknown roles fail closed.
func ClassifyRole(role models.Role) Tier {
	switch role {
	case models.RoleUser:
		return TierUser
	case models.RoleTeacher:
		return TierTeacher
	case models.RoleAdmin:
		return TierAdmin
	default:
		return TierAnonymous
	}
}

func Classify(u *models.User) Tier {
	if u == nil {
		return TierAnonymous
	}
	return ClassifyRole(u.Role)
}

// FullAccess reports whether paid session content is visible to the caller.
func FullAccess(t Tier, purchased bool) bool {
	switch t {
	case TierTeacher, TierAdmin:
		return true
	case TierUser:
		return purchased
	default:
		return false
	}
}
