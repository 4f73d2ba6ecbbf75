package permission

import "strings"

// Level is the access granted for one MODULE_ACTION key. Levels are ordered:
// a higher value grants strictly more.
type Level int

const (
	LevelDenied Level = iota
	LevelIfResponsible
	LevelTeam
	LevelAllowed
)

var levelNames = map[Level]string{
	LevelDenied:        "DENIED",
	LevelIfResponsible: "IF_RESPONSIBLE",
	LevelTeam:          "TEAM",
	LevelAllowed:       "ALLOWED",
}

// levelSuffixes is checked longest first so IF_RESPONSIBLE is never read as
// a module ending in IF.
var levelSuffixes = []Level{LevelIfResponsible, LevelAllowed, LevelDenied, LevelTeam}

// ParseLevel accepts only the four wire names. Unknown names are rejected.
func ParseLevel(s string) (Level, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for level, name := range levelNames {
		if name == s {
			return level, true
		}
	}
	return LevelDenied, false
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}
