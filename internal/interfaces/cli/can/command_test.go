package can

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanCommand(t *testing.T) {
	roles := []string{"--role", "ROLE_LEADS_EDIT_TEAM", "--role", "ROLE_CHAT_VIEW_IF_RESPONSIBLE,ROLE_LEADS_VIEW_ALLOWED"}

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{
			name: "teammate",
			args: append([]string{"leads", "edit", "--user", "7", "--team", "8,9", "--responsible", "8"}, roles...),
			want: "LEADS_EDIT level=TEAM strict=false allowed=true\n",
		},
		{
			name: "outside the team",
			args: append([]string{"leads", "edit", "--user", "7", "--team", "8,9", "--responsible", "20"}, roles...),
			want: "LEADS_EDIT level=TEAM strict=false allowed=false\n",
		},
		{
			name: "self is a teammate",
			args: append([]string{"leads", "edit", "--user", "7", "--responsible", "7"}, roles...),
			want: "LEADS_EDIT level=TEAM strict=false allowed=true\n",
		},
		{
			name: "responsible only",
			args: append([]string{"chat", "view", "--user", "7", "--responsible", "8", "--skip-context-check"}, roles...),
			want: "CHAT_VIEW level=IF_RESPONSIBLE strict=false allowed=true\n",
		},
		{
			name: "strict",
			args: append([]string{"LEADS", "VIEW"}, roles...),
			want: "LEADS_VIEW level=ALLOWED strict=true allowed=true\n",
		},
		{
			name: "missing role",
			args: append([]string{"leads", "delete", "--user", "7", "--responsible", "7"}, roles...),
			want: "LEADS_DELETE level=DENIED strict=false allowed=false\n",
		},
		{
			name: "matrix",
			args: append([]string{"--matrix"}, roles...),
			want: "CHAT_VIEW=IF_RESPONSIBLE, LEADS_EDIT=TEAM, LEADS_VIEW=ALLOWED\n",
		},
		{
			name:    "unknown action",
			args:    []string{"leads", "approve"},
			wantErr: true,
		},
		{
			name:    "missing action",
			args:    []string{"leads"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cmd := NewCommand()
			cmd.SetOut(&out)
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.String())
		})
	}
}
