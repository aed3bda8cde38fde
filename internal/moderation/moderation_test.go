package moderation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Skotchmaster/course_market/internal/models"
)

func user(id string, role models.Role, banned bool) *models.User {
	return &models.User{Model: models.Model{ID: id}, Role: role, IsBanned: banned}
}

func TestCheckBan(t *testing.T) {
	t.Parallel()

	admin := user("a", models.RoleAdmin, false)

	tests := []struct {
		name     string
		operator *models.User
		target   *models.User
		want     error
	}{
		{name: "active user", operator: admin, target: user("u", models.RoleUser, false)},
		{name: "active teacher", operator: admin, target: user("t", models.RoleTeacher, false)},
		{name: "already banned", operator: admin, target: user("u", models.RoleUser, true), want: ErrAlreadyBanned},
		{name: "self", operator: user("t", models.RoleTeacher, false), target: user("t", models.RoleTeacher, false), want: ErrSelfBan},
		{name: "other admin", operator: admin, target: user("b", models.RoleAdmin, false), want: ErrBanAdmin},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := CheckBan(tt.operator, tt.target)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestBanStateMachine(t *testing.T) {
	t.Parallel()

	admin := user("a", models.RoleAdmin, false)
	target := user("u", models.RoleUser, false)
	assert.Equal(t, Active, StateOf(target))
	assert.ErrorIs(t, CheckUnban(target), ErrNotBanned)

	assert.NoError(t, CheckBan(admin, target))
	target.IsBanned = true
	assert.Equal(t, Banned, StateOf(target))
	assert.ErrorIs(t, CheckBan(admin, target), ErrAlreadyBanned)

	assert.NoError(t, CheckUnban(target))
	target.IsBanned = false
	assert.Equal(t, "active", StateOf(target).String())
	assert.NoError(t, CheckBan(admin, target))
}

func TestCheckRoleChange(t *testing.T) {
	t.Parallel()

	admin := user("a", models.RoleAdmin, false)
	other := user("b", models.RoleAdmin, false)
	student := user("u", models.RoleUser, false)

	assert.ErrorIs(t, CheckRoleChange(admin, admin, models.RoleUser, 2), ErrSelfRoleChange)
	assert.ErrorIs(t, CheckRoleChange(admin, admin, models.RoleAdmin, 1), ErrSelfRoleChange)
	assert.ErrorIs(t, CheckRoleChange(admin, other, models.RoleTeacher, 1), ErrLastAdmin)
	assert.NoError(t, CheckRoleChange(admin, other, models.RoleTeacher, 2))
	assert.NoError(t, CheckRoleChange(admin, student, models.RoleTeacher, 1))
	assert.NoError(t, CheckRoleChange(admin, other, models.RoleAdmin, 1))
}

func TestCheckRemoval(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, CheckRemoval(user("a", models.RoleAdmin, false), 1), ErrLastAdmin)
	assert.NoError(t, CheckRemoval(user("a", models.RoleAdmin, false), 2))
	assert.NoError(t, CheckRemoval(user("u", models.RoleUser, false), 1))
}

func TestReason(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultBanReason, Reason(""))
	assert.Equal(t, "spam", Reason("spam"))
}
