package filter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDecode(t *testing.T) {
	var out bytes.Buffer
	cmd := NewCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"decode", "https://crm.example.com/leads?workflow=B&workflow=A&technician_id=07&creation_date_from=2024-01-05&bogus=1"})
	require.NoError(t, cmd.Execute())

	var got struct {
		Filter    map[string]any `yaml:"filter"`
		Active    bool           `yaml:"active"`
		Canonical string         `yaml:"canonical"`
	}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
	assert.True(t, got.Active)
	assert.Equal(t, []any{"B", "A"}, got.Filter["workflow"])
	assert.Equal(t, []any{"7"}, got.Filter["technician_id"])
	assert.NotContains(t, got.Filter, "bogus")
	assert.Equal(t, "creation_date_from=2024-01-05&technician_id=7&workflow=A&workflow=B", got.Canonical)
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr string
	}{
		{
			name: "lists ranges and flags",
			input: `
workflow: [Work, New]
action_needed: true
creation_date: {from: 2024-01-05}
unseen_count: {to: 3}
`,
			want: "action_needed=true&creation_date_from=2024-01-05&unseen_count_to=3&workflow=New&workflow=Work",
		},
		{
			name:  "a lone value becomes a list",
			input: "tags: vip\n",
			want:  "tags=vip",
		},
		{
			name:  "invalid dates are dropped",
			input: "creation_date: {from: yesterday}\nsearch: ion\n",
			want:  "search=ion",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:    "unknown field",
			input:   "colour: red\n",
			wantErr: `unknown filter field "colour"`,
		},
		{
			name:    "bad flag",
			input:   "action_needed: maybe\n",
			wantErr: "must be true or false",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := runEncode(&out, strings.NewReader(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, strings.TrimSpace(out.String()))
		})
	}
}
