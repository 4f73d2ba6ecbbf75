package value_objects

import (
	"fmt"
	"strings"
)

// Module is the resource part of a MODULE_ACTION permission key. Module
// names may contain underscores (CHAT_TEMPLATES).
type Module string

const (
	ModuleLeads Module = "LEADS"
	ModuleChat  Module = "CHAT"
	ModuleTasks Module = "TASKS"
)

func NewModule(module string) (Module, error) {
	module = strings.TrimSpace(module)
	if module == "" {
		return "", fmt.Errorf("module cannot be empty")
	}
	if len(module) > 50 {
		return "", fmt.Errorf("module too long (max 50 characters)")
	}
	return Module(strings.ToUpper(module)), nil
}

func (m Module) String() string {
	return string(m)
}

// Key joins the module and action into the upper-case matrix key.
func (m Module) Key(a Action) string {
	return strings.ToUpper(string(m)) + "_" + strings.ToUpper(string(a))
}
