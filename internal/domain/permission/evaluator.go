package permission

import (
	"strings"

	vo "leadsync/internal/domain/permission/value_objects"
)

// Permission names one module/action pair to check.
type Permission struct {
	Module vo.Module
	Action vo.Action
}

func (p Permission) Key() string {
	return p.Module.Key(p.Action)
}

// Context carries the facts a contextual level needs. User ids are compared
// as strings.
type Context struct {
	ResponsibleID string
	CurrentUserID string
	IsSameTeam    bool
}

type Options struct {
	// SkipContextCheck treats any non-denied level as granted.
	SkipContextCheck bool
}

// Can evaluates p against the matrix. It never fails: unknown keys are denied.
func Can(m Matrix, p Permission, ctx Context, opts Options) bool {
	level := m.Level(p.Key())

	switch {
	case level == LevelDenied:
		return false
	case level == LevelAllowed:
		return true
	case opts.SkipContextCheck:
		return true
	}

	switch level {
	case LevelIfResponsible:
		return ctx.ResponsibleID != "" && ctx.ResponsibleID == ctx.CurrentUserID
	case LevelTeam:
		// the responsible user is picked while creating, so there is nobody
		// to compare against yet
		if p.Action.Equals(vo.ActionCreate) && ctx.ResponsibleID == "" {
			return true
		}
		return ctx.IsSameTeam
	}
	return false
}

// HasStrictPermission reports whether the literal ROLE_{MODULE}_{ACTION}_ALLOWED
// role is present. Used for coarse route gating.
func HasStrictPermission(roles []string, module, action string) bool {
	want := rolePrefix + strings.ToUpper(module) + "_" + strings.ToUpper(action) + "_" + levelNames[LevelAllowed]
	for _, role := range roles {
		if strings.EqualFold(strings.TrimSpace(role), want) {
			return true
		}
	}
	return false
}
