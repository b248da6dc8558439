package util

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carried by a session token. Role and tenant travel in the token so
// RBAC checks do not need a user lookup per request.
type Claims struct {
	UserID   string
	TenantID string
	Role     string
}

// GenerateJWT creates a token for a user.
func GenerateJWT(claims Claims, secret string) (string, error) {
	mapClaims := jwt.MapClaims{
		"user_id":   claims.UserID,
		"tenant_id": claims.TenantID,
		"role":      claims.Role,
		"exp":       time.Now().Add(24 * time.Hour).Unix(),
		"iat":       time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, mapClaims)
	return token.SignedString([]byte(secret))
}

// ParseJWT validates a token and extracts the session claims.
func ParseJWT(tokenStr, secret string) (Claims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return Claims{}, err
	}

	if !token.Valid {
		return Claims{}, jwt.ErrTokenInvalidClaims
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, jwt.ErrTokenMalformed
	}

	userID, ok := mapClaims["user_id"].(string)
	if !ok || userID == "" {
		return Claims{}, jwt.ErrTokenMalformed
	}
	tenantID, ok := mapClaims["tenant_id"].(string)
	if !ok || tenantID == "" {
		return Claims{}, jwt.ErrTokenMalformed
	}
	role, _ := mapClaims["role"].(string)

	return Claims{UserID: userID, TenantID: tenantID, Role: role}, nil
}

func ExtractToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}

	parts := strings.Split(auth, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return parts[1]
}
