package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"leadsync/internal/application/session"
	"leadsync/internal/domain/permission"
	vo "leadsync/internal/domain/permission/value_objects"
	"leadsync/internal/shared/constants"
	"leadsync/internal/shared/logger"
	"leadsync/internal/shared/utils"
)

type sessionProvider interface {
	Current() *session.Session
}

// PermissionMiddleware gates routes on the strict ROLE_{MODULE}_{ACTION}_ALLOWED
// grant of the signed-in user.
type PermissionMiddleware struct {
	sessions sessionProvider
	enforcer permission.RouteEnforcer
	logger   logger.Interface
}

func NewPermissionMiddleware(sessions sessionProvider, enforcer permission.RouteEnforcer, logger logger.Interface) *PermissionMiddleware {
	return &PermissionMiddleware{
		sessions: sessions,
		enforcer: enforcer,
		logger:   logger,
	}
}

// RequireSession rejects requests made while signed out.
func (m *PermissionMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := m.sessions.Current()
		if sess == nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "no active session")
			c.Abort()
			return
		}
		c.Set(constants.ContextKeyUserID, sess.UserID())
		c.Next()
	}
}

func (m *PermissionMiddleware) RequirePermission(module vo.Module, action vo.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := m.sessions.Current()
		if sess == nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "no active session")
			c.Abort()
			return
		}
		c.Set(constants.ContextKeyUserID, sess.UserID())

		allowed, err := m.enforcer.Enforce(sess.UserIDString(), module.String(), action.String())
		if err != nil {
			m.logger.Errorw("permission check failed", "error", err, "user_id", sess.UserID(), "module", module, "action", action)
			utils.ErrorResponse(c, http.StatusInternalServerError, "permission check failed")
			c.Abort()
			return
		}

		if !allowed {
			m.logger.Warnw("permission denied", "user_id", sess.UserID(), "module", module, "action", action)
			utils.ErrorResponse(c, http.StatusForbidden, "insufficient permissions")
			c.Abort()
			return
		}

		c.Next()
	}
}
