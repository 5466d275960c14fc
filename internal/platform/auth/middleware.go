package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"KCMS-gateway/internal/platform/resp"
)

const (
	CtxUserIDKey = "user_id"
	CtxRoleKey   = "role"
)

func abort(c *gin.Context, status int, msg string) {
	resp.FailWith(c, status, msg, nil)
	c.Abort()
}

// RequireAuth: Authorization: Bearer <token> を検証して context に sub/role を詰める
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			abort(c, http.StatusUnauthorized, "missing Authorization header")
			return
		}

		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			abort(c, http.StatusUnauthorized, "invalid Authorization header")
			return
		}

		// alg は HS256 固定
		token, err := jwt.Parse(strings.TrimSpace(parts[1]), func(t *jwt.Token) (any, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || token == nil || !token.Valid {
			abort(c, http.StatusUnauthorized, "invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abort(c, http.StatusUnauthorized, "invalid claims")
			return
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			abort(c, http.StatusUnauthorized, "invalid sub")
			return
		}
		role, _ := claims["role"].(string)

		c.Set(CtxUserIDKey, sub)
		c.Set(CtxRoleKey, role)
		c.Next()
	}
}

// RequireRole: パス接頭辞ごとに許可ロールを絞る。admin は常に許可
func RequireRole(roles ...string) gin.HandlerFunc {
	roleSet := map[string]struct{}{RoleAdmin: {}}
	for _, r := range roles {
		if r != "" {
			roleSet[r] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		role := c.GetString(CtxRoleKey)
		if role == "" {
			abort(c, http.StatusForbidden, "missing role")
			return
		}
		if _, allowed := roleSet[role]; !allowed {
			abort(c, http.StatusForbidden, "forbidden")
			return
		}
		c.Next()
	}
}

// Subject: 認証済みなら社員コードを返す
func Subject(c *gin.Context) (string, bool) {
	sub := c.GetString(CtxUserIDKey)
	return sub, sub != ""
}
