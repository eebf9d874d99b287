package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/proofnote/internal/pkg/errcode"
	"github.com/xxxsen/proofnote/internal/pkg/jwt"
	"github.com/xxxsen/proofnote/internal/pkg/response"
)

const ContextUserIDKey = "user_id"

// JWTAuth resolves the note owner from a bearer token. A token without a
// user, or whose subject names someone else, is rejected even when the
// signature is valid.
func JWTAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Abort(c, errcode.ErrUnauthorized, "missing authorization")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Abort(c, errcode.ErrUnauthorized, "invalid authorization")
			return
		}
		claims, err := jwt.ParseToken(strings.TrimSpace(parts[1]), secret)
		if err != nil {
			rejectToken(c, "invalid token", err)
			return
		}
		userID := strings.TrimSpace(claims.UserID)
		if userID == "" || (claims.Subject != "" && claims.Subject != userID) {
			rejectToken(c, "token has no owner", nil)
			return
		}
		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

func rejectToken(c *gin.Context, msg string, err error) {
	logutil.GetLogger(c.Request.Context()).Warn("token rejected",
		zap.String("request_id", c.GetString(ContextRequestIDKey)),
		zap.String("path", c.Request.URL.Path),
		zap.String("reason", msg),
		zap.Error(err),
	)
	response.Abort(c, errcode.ErrUnauthorized, msg)
}
