package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"

	vo "leadsync/internal/domain/permission/value_objects"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in    string
		want  Level
		valid bool
	}{
		{"DENIED", LevelDenied, true},
		{"if_responsible", LevelIfResponsible, true},
		{"TEAM", LevelTeam, true},
		{"ALLOWED", LevelAllowed, true},
		{"OWNER", LevelDenied, false},
		{"", LevelDenied, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.True(t, LevelDenied < LevelIfResponsible)
	assert.True(t, LevelTeam < LevelAllowed)
}

func TestBuildMatrix(t *testing.T) {
	m := BuildMatrix([]string{
		"ROLE_LEADS_EDIT_TEAM",
		"ROLE_LEADS_EDIT_IF_RESPONSIBLE",
		"ROLE_CHAT_TEMPLATES_DELETE_ALLOWED",
		"role_leads_view_allowed",
		"ROLE_ADMIN",
		"ROLE_LEADS_APPROVE_ALLOWED",
		"ROLE_LEADS_VIEW_OWNER",
		"ROLE_EDIT_ALLOWED",
		"USER_LEADS_VIEW_ALLOWED",
	})

	assert.Equal(t, LevelTeam, m.Level("LEADS_EDIT"), "higher level wins")
	assert.Equal(t, LevelAllowed, m.Level("CHAT_TEMPLATES_DELETE"))
	assert.Equal(t, LevelAllowed, m.Level("leads_view"))
	assert.Equal(t, []string{"CHAT_TEMPLATES_DELETE", "LEADS_EDIT", "LEADS_VIEW"}, m.Keys())
	assert.Equal(t, "CHAT_TEMPLATES_DELETE=ALLOWED, LEADS_EDIT=TEAM, LEADS_VIEW=ALLOWED", m.String())
}

func TestBuildMatrix_Empty(t *testing.T) {
	assert.Empty(t, BuildMatrix(nil))
	assert.Empty(t, BuildMatrix([]string{}))
	assert.Equal(t, LevelDenied, BuildMatrix(nil).Level("LEADS_VIEW"))
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		role   string
		module vo.Module
		action vo.Action
		level  Level
		ok     bool
	}{
		{role: "ROLE_LEADS_VIEW_ALLOWED", module: "LEADS", action: vo.ActionView, level: LevelAllowed, ok: true},
		{role: " role_chat_edit_if_responsible ", module: "CHAT", action: vo.ActionEdit, level: LevelIfResponsible, ok: true},
		{role: "ROLE_SALES_REPORTS_EXPORT_TEAM", module: "SALES_REPORTS", action: vo.ActionExport, level: LevelTeam, ok: true},
		{role: "ROLE_LEADS_FLY_ALLOWED", ok: false},
		{role: "LEADS_VIEW_ALLOWED", ok: false},
		{role: "ROLE_VIEW_ALLOWED", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			module, action, level, ok := ParseRole(tt.role)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.module, module)
				assert.Equal(t, tt.action, action)
				assert.Equal(t, tt.level, level)
			}
		})
	}
}
