package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"

	vo "leadsync/internal/domain/permission/value_objects"
)

var leadsEdit = Permission{Module: "leads", Action: "edit"}

func TestCan_TeamLevel(t *testing.T) {
	m := BuildMatrix([]string{"ROLE_LEADS_EDIT_TEAM"})

	assert.True(t, Can(m, leadsEdit, Context{ResponsibleID: "12", CurrentUserID: "5", IsSameTeam: true}, Options{}))
	assert.False(t, Can(m, leadsEdit, Context{ResponsibleID: "12", CurrentUserID: "5", IsSameTeam: false}, Options{}))
}

func TestCan_AllowedIgnoresContext(t *testing.T) {
	m := BuildMatrix([]string{"ROLE_LEADS_EDIT_ALLOWED"})

	assert.True(t, Can(m, leadsEdit, Context{}, Options{}))
	assert.True(t, Can(m, leadsEdit, Context{ResponsibleID: "1", CurrentUserID: "2"}, Options{}))
}

func TestCan_NoMatchingRole(t *testing.T) {
	m := BuildMatrix([]string{"ROLE_CHAT_VIEW_ALLOWED"})

	assert.False(t, Can(m, leadsEdit, Context{IsSameTeam: true}, Options{}))
	assert.False(t, Can(m, leadsEdit, Context{}, Options{SkipContextCheck: true}))
}

func TestCan_IfResponsible(t *testing.T) {
	m := BuildMatrix([]string{"ROLE_LEADS_EDIT_IF_RESPONSIBLE"})

	tests := []struct {
		name string
		ctx  Context
		opts Options
		want bool
	}{
		{"own ticket", Context{ResponsibleID: "7", CurrentUserID: "7"}, Options{}, true},
		{"other ticket", Context{ResponsibleID: "8", CurrentUserID: "7", IsSameTeam: true}, Options{}, false},
		{"no responsible", Context{CurrentUserID: "7"}, Options{}, false},
		{"context skipped", Context{ResponsibleID: "8", CurrentUserID: "7"}, Options{SkipContextCheck: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Can(m, leadsEdit, tt.ctx, tt.opts))
		})
	}
}

func TestCan_TeamCreateWithoutResponsible(t *testing.T) {
	m := BuildMatrix([]string{"ROLE_LEADS_CREATE_TEAM"})
	create := Permission{Module: vo.ModuleLeads, Action: vo.ActionCreate}

	assert.True(t, Can(m, create, Context{CurrentUserID: "7"}, Options{}))
	assert.False(t, Can(m, create, Context{ResponsibleID: "9", CurrentUserID: "7"}, Options{}))
	assert.True(t, Can(m, create, Context{ResponsibleID: "9", CurrentUserID: "7", IsSameTeam: true}, Options{}))
}

func TestCan_Deterministic(t *testing.T) {
	m := BuildMatrix([]string{"ROLE_LEADS_EDIT_TEAM"})
	ctx := Context{ResponsibleID: "3", CurrentUserID: "4", IsSameTeam: true}
	for i := 0; i < 5; i++ {
		assert.True(t, Can(m, leadsEdit, ctx, Options{}))
	}
}

func TestHasStrictPermission(t *testing.T) {
	roles := []string{"ROLE_LEADS_VIEW_ALLOWED", "ROLE_CHAT_VIEW_TEAM"}

	assert.True(t, HasStrictPermission(roles, "leads", "view"))
	assert.False(t, HasStrictPermission(roles, "CHAT", "VIEW"))
	assert.False(t, HasStrictPermission(nil, "LEADS", "VIEW"))
}
