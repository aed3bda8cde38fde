package moderation

import "github.com/Skotchmaster/course_market/internal/models"

const DefaultBanReason = "Violated the terms of service"

// Violation is a refused moderation action. Its text is shown to the caller.
type Violation string

func (v Violation) Error() string { return string(v) }

const (
	ErrAlreadyBanned  Violation = "User is already banned"
	ErrNotBanned      Violation = "User is not banned"
	ErrSelfBan        Violation = "You cannot ban yourself"
	ErrBanAdmin       Violation = "Admins cannot be banned"
	ErrSelfRoleChange Violation = "You cannot update your own role"
	ErrLastAdmin      Violation = "You cannot remove the last admin"
)

type State int

const (
	Active State = iota
	Banned
)

func (s State) String() string {
	if s == Banned {
		return "banned"
	}
	return "active"
}

func StateOf(u *models.User) State {
	if u != nil && u.IsBanned {
		return Banned
	}
	return Active
}

// CheckBan validates the ACTIVE -> BANNED transition.
func CheckBan(operator, target *models.User) error {
	if StateOf(target) == Banned {
		return ErrAlreadyBanned
	}
	if operator != nil && operator.ID == target.ID {
		return ErrSelfBan
	}
	if target.Role == models.RoleAdmin {
		return ErrBanAdmin
	}
	return nil
}

// CheckUnban validates the BANNED -> ACTIVE transition.
func CheckUnban(target *models.User) error {
	if StateOf(target) != Banned {
		return ErrNotBanned
	}
	return nil
}

// CheckRoleChange rejects self-promotion or demotion and demoting the only
// admin. admins is the current admin count.
func CheckRoleChange(operator, target *models.User, role models.Role, admins int64) error {
	if operator != nil && operator.ID == target.ID {
		return ErrSelfRoleChange
	}
	if target.Role == models.RoleAdmin && role != models.RoleAdmin && admins <= 1 {
		return ErrLastAdmin
	}
	return nil
}

// CheckRemoval rejects deleting the only admin.
func CheckRemoval(target *models.User, admins int64) error {
	if target.Role == models.RoleAdmin && admins <= 1 {
		return ErrLastAdmin
	}
	return nil
}

func Reason(reason string) string {
	if reason == "" {
		return DefaultBanReason
	}
	return reason
}
