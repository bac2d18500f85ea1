package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/esperluet/cv-smarter/internal/pkg/errcode"
	"github.com/esperluet/cv-smarter/internal/pkg/jwt"
	"github.com/esperluet/cv-smarter/internal/pkg/response"
)

const (
	ContextUserIDKey    = "user_id"
	ContextUserEmailKey = "user_email"
)

// JWTAuth rejects requests without a valid bearer token and stores the
// authenticated user's id and email on the request context.
func JWTAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c, "missing or malformed authorization")
			return
		}
		claims, err := jwt.ParseToken(token, secret)
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}
		c.Set(ContextUserIDKey, claims.UserID)
		if claims.Email != "" {
			c.Set(ContextUserEmailKey, claims.Email)
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func abortUnauthorized(c *gin.Context, msg string) {
	response.Error(c, errcode.ErrUnauthorized, msg)
	c.Abort()
}
