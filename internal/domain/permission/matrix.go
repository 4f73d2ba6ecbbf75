package permission

import (
	"sort"
	"strings"

	vo "leadsync/internal/domain/permission/value_objects"
)

const rolePrefix = "ROLE_"

// Matrix maps an upper-case MODULE_ACTION key to its access level.
// Absent keys are Denied.
type Matrix map[string]Level

// BuildMatrix parses role strings of the form ROLE_{MODULE}_{ACTION}_{LEVEL}.
// Strings that do not match are ignored. When a key repeats, the higher
// level wins.
func BuildMatrix(roles []string) Matrix {
	m := make(Matrix, len(roles))
	for _, role := range roles {
		key, level, ok := parseRole(role)
		if !ok {
			continue
		}
		if current, exists := m[key]; !exists || level > current {
			m[key] = level
		}
	}
	return m
}

// ParseRole splits ROLE_{MODULE}_{ACTION}_{LEVEL}. The level and the action
// are read from the right so module names may themselves contain
// underscores. Roles whose action is outside the fixed vo action set are
// rejected.
func ParseRole(role string) (module vo.Module, action vo.Action, level Level, ok bool) {
	role = strings.ToUpper(strings.TrimSpace(role))
	if !strings.HasPrefix(role, rolePrefix) {
		return "", "", LevelDenied, false
	}
	rest := strings.TrimPrefix(role, rolePrefix)

	matched := false
	for _, candidate := range levelSuffixes {
		suffix := "_" + levelNames[candidate]
		if strings.HasSuffix(rest, suffix) {
			rest = strings.TrimSuffix(rest, suffix)
			level = candidate
			matched = true
			break
		}
	}
	if !matched {
		return "", "", LevelDenied, false
	}

	idx := strings.LastIndex(rest, "_")
	if idx <= 0 {
		return "", "", LevelDenied, false
	}
	module, action = vo.Module(rest[:idx]), vo.Action(rest[idx+1:])
	if !action.IsValid() {
		return "", "", LevelDenied, false
	}
	return module, action, level, true
}

func parseRole(role string) (key string, level Level, ok bool) {
	module, action, level, ok := ParseRole(role)
	if !ok {
		return "", LevelDenied, false
	}
	return module.Key(action), level, true
}

// Level returns the level stored for key, Denied when absent.
func (m Matrix) Level(key string) Level {
	return m[strings.ToUpper(key)]
}

// Keys returns the matrix keys in sorted order.
func (m Matrix) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m Matrix) String() string {
	var b strings.Builder
	for i, k := range m.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(m[k].String())
	}
	return b.String()
}
