package value_objects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAction(t *testing.T) {
	a, err := NewAction("edit")
	require.NoError(t, err)
	assert.Equal(t, ActionEdit, a)

	_, err = NewAction("approve")
	assert.Error(t, err)
	_, err = NewAction("")
	assert.Error(t, err)

	assert.True(t, ActionView.Equals("view"))
}

func TestModule_Key(t *testing.T) {
	m, err := NewModule("chat_templates")
	require.NoError(t, err)
	assert.Equal(t, "CHAT_TEMPLATES_DELETE", m.Key(ActionDelete))
	assert.Equal(t, "LEADS_VIEW", ModuleLeads.Key("view"))

	_, err = NewModule("  ")
	assert.Error(t, err)
}
