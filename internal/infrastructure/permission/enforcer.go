// Package permission backs the strict route checks with an in-memory casbin
// enforcer: every *_ALLOWED role string becomes a policy line and the
// signed-in user is granted those roles.
package permission

import (
	"fmt"
	"strings"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"leadsync/internal/domain/permission"
	"leadsync/internal/shared/logger"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

var _ permission.RouteEnforcer = (*Enforcer)(nil)

type Enforcer struct {
	enforcer *casbin.Enforcer
	mu       sync.RWMutex
	logger   logger.Interface
}

func NewEnforcer(log logger.Interface) (*Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse casbin model: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	return &Enforcer{
		enforcer: enforcer,
		logger:   log.Named("guard"),
	}, nil
}

// LoadRoles replaces the subject's grants with the ALLOWED roles among
// roles. Other levels need a ticket to be evaluated and are not route
// grants.
func (e *Enforcer) LoadRoles(subject string, roles []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.enforcer.DeleteRolesForUser(subject); err != nil {
		return fmt.Errorf("failed to reset roles for %s: %w", subject, err)
	}

	granted := 0
	for _, raw := range roles {
		module, action, level, ok := permission.ParseRole(raw)
		if !ok || level != permission.LevelAllowed {
			continue
		}
		role := strings.ToUpper(strings.TrimSpace(raw))
		if _, err := e.enforcer.AddPolicy(role, strings.ToUpper(module.String()), action.String()); err != nil {
			e.logger.Errorw("failed to add route policy", "role", role, "error", err)
			return fmt.Errorf("failed to add policy for %s: %w", role, err)
		}
		if _, err := e.enforcer.AddRoleForUser(subject, role); err != nil {
			e.logger.Errorw("failed to add role for subject", "subject", subject, "role", role, "error", err)
			return fmt.Errorf("failed to add role for subject: %w", err)
		}
		granted++
	}

	e.logger.Infow("route grants loaded", "subject", subject, "grants", granted)
	return nil
}

func (e *Enforcer) Enforce(subject string, module string, action string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	allowed, err := e.enforcer.Enforce(subject, strings.ToUpper(module), strings.ToUpper(action))
	if err != nil {
		e.logger.Errorw("permission check failed", "error", err, "subject", subject, "module", module, "action", action)
		return false, fmt.Errorf("permission check failed: %w", err)
	}
	return allowed, nil
}

// Reset drops every grant of subject, used at logout.
func (e *Enforcer) Reset(subject string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.enforcer.DeleteRolesForUser(subject); err != nil {
		return fmt.Errorf("failed to reset roles for %s: %w", subject, err)
	}
	return nil
}

// GetRolesForUser lists the role strings granted to subject.
func (e *Enforcer) GetRolesForUser(subject string) ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	roles, err := e.enforcer.GetRolesForUser(subject)
	if err != nil {
		return nil, fmt.Errorf("failed to get roles for user: %w", err)
	}
	return roles, nil
}
