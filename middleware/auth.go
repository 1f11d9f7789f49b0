package middleware

import (
	"strings"

	"notesapi/config"
	"notesapi/log"
	"notesapi/model"
	"notesapi/services"
	"notesapi/utils"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware guards mutations. With no verifier configured, strict mode
// rejects every request with auth_disabled and permissive mode injects the
// development identity.
func AuthMiddleware(verifier services.TokenVerifier, mode string) gin.HandlerFunc {
	if verifier == nil {
		if mode == config.AuthPermissive {
			log.Logger().Warningf(nil, "auth is not configured; mutations run as %q (AUTH_MODE=permissive)", model.DevIdentity.ID)
			return func(c *gin.Context) {
				c.Set(utils.IdentityKey, model.DevIdentity)
				c.Next()
			}
		}
		log.Logger().Noticef(nil, "auth is not configured; mutations are disabled (AUTH_MODE=strict)")
		return func(c *gin.Context) {
			utils.Fail(c, model.ErrAuthDisabled)
		}
	}

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			utils.Unauthorized(c, "missing bearer token")
			return
		}

		identity, err := verifier.Verify(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			log.Logger().Debugf(log.Labels{"trace_id": utils.RequestID(c)}, "token rejected: %v", err)
			utils.Unauthorized(c, "invalid or expired token")
			return
		}

		c.Set(utils.IdentityKey, *identity)
		c.Next()
	}
}

// CurrentIdentity returns the caller set by AuthMiddleware.
func CurrentIdentity(c *gin.Context) (model.Identity, bool) {
	v, ok := c.Get(utils.IdentityKey)
	if !ok {
		return model.Identity{}, false
	}
	identity, ok := v.(model.Identity)
	return identity, ok
}
