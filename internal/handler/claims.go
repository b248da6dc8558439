package handler

import (
	"github.com/gin-gonic/gin"

	"pipecrm/internal/util"
)

// ClaimsKey is the gin context key the auth middleware stores token claims
// under.
const ClaimsKey = "claims"

// ClaimsFrom returns the authenticated claims for the request.
func ClaimsFrom(c *gin.Context) (util.Claims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return util.Claims{}, false
	}
	claims, ok := v.(util.Claims)
	return claims, ok
}
