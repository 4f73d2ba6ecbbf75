package filter

import "slices"

// Range is an inclusive bound pair. Either side may be empty.
type Range struct {
	From string `json:"from,omitempty" yaml:"from,omitempty"`
	To   string `json:"to,omitempty" yaml:"to,omitempty"`
}

func (r Range) IsEmpty() bool {
	return r.From == "" && r.To == ""
}

// Set is a partially populated filter. Values are string, bool, []string or
// Range; anything else is treated as empty.
type Set map[string]any

// Strings returns a list value, wrapping a lone string.
func (s Set) Strings(key string) []string {
	switch v := s[key].(type) {
	case []string:
		return v
	case string:
		if v != "" {
			return []string{v}
		}
	}
	return nil
}

func (s Set) Scalar(key string) string {
	v, _ := s[key].(string)
	return v
}

func (s Set) Bool(key string) (bool, bool) {
	v, ok := s[key].(bool)
	return v, ok
}

func (s Set) Range(key string) (Range, bool) {
	v, ok := s[key].(Range)
	return v, ok && !v.IsEmpty()
}

// Clone copies the set and its slices.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k, v := range s {
		if list, ok := v.([]string); ok {
			v = slices.Clone(list)
		}
		out[k] = v
	}
	return out
}

// Without returns a copy missing the given keys.
func (s Set) Without(keys ...string) Set {
	out := s.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// isEmptyValue is the emptiness predicate shared by Prune and
// HasActiveFilters.
func isEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []string:
		return len(val) == 0
	case Range:
		return val.IsEmpty()
	case map[string]any:
		return len(val) == 0
	case map[string]string:
		return len(val) == 0
	}
	return false
}

// Prune drops every empty field.
func Prune(s Set) Set {
	out := make(Set, len(s))
	for k, v := range s {
		if isEmptyValue(v) {
			continue
		}
		if list, ok := v.([]string); ok {
			v = slices.Clone(list)
		}
		out[k] = v
	}
	return out
}

// HasActiveFilters reports whether any real filter is set. view, type and
// group_title never count.
func HasActiveFilters(s Set) bool {
	for k, v := range s {
		if nonFilterKeys[k] {
			continue
		}
		if !isEmptyValue(v) {
			return true
		}
	}
	return false
}
