package value_objects

import (
	"fmt"
	"strings"
)

// Action is the verb part of a MODULE_ACTION permission key.
type Action string

const (
	ActionView   Action = "VIEW"
	ActionCreate Action = "CREATE"
	ActionEdit   Action = "EDIT"
	ActionDelete Action = "DELETE"
	ActionExport Action = "EXPORT"
)

var validActions = map[Action]bool{
	ActionView:   true,
	ActionCreate: true,
	ActionEdit:   true,
	ActionDelete: true,
	ActionExport: true,
}

// NewAction parses an action name case-insensitively.
func NewAction(action string) (Action, error) {
	if action == "" {
		return "", fmt.Errorf("action cannot be empty")
	}

	a := Action(strings.ToUpper(action))
	if !validActions[a] {
		return "", fmt.Errorf("invalid action: %s", action)
	}

	return a, nil
}

func (a Action) IsValid() bool {
	return validActions[a]
}

func (a Action) String() string {
	return string(a)
}

func (a Action) Equals(other Action) bool {
	return strings.EqualFold(string(a), string(other))
}
