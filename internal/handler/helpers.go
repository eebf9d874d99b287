package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/proofnote/internal/ai"
	"github.com/xxxsen/proofnote/internal/correction"
	"github.com/xxxsen/proofnote/internal/middleware"
	"github.com/xxxsen/proofnote/internal/pkg/errcode"
	appErr "github.com/xxxsen/proofnote/internal/pkg/errors"
	"github.com/xxxsen/proofnote/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	return c.GetString(middleware.ContextUserIDKey)
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Warn("request failed",
		zap.String("request_id", c.GetString(middleware.ContextRequestIDKey)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("user_id", getUserID(c)),
		zap.Error(err),
	)
	var oracleErr *ai.OracleError
	var parseErr *correction.WholeDocumentParseError
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, errcode.ErrForbidden, "forbidden")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, err.Error())
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, errcode.ErrConflict, err.Error())
	case errors.Is(err, appErr.ErrInProgress):
		response.Error(c, errcode.ErrInProgress, "correction in progress")
	case errors.Is(err, appErr.ErrCanceled):
		response.Error(c, errcode.ErrCanceled, "correction canceled")
	case errors.Is(err, appErr.ErrNoBackup):
		response.Error(c, errcode.ErrNoBackup, "no backup available")
	case errors.Is(err, ai.ErrUnavailable):
		response.Error(c, errcode.ErrAIUnavailable, "ai provider unavailable")
	case errors.As(err, &oracleErr):
		response.Error(c, errcode.ErrOracle, oracleErr.Error())
	case errors.As(err, &parseErr):
		response.Error(c, errcode.ErrParseFailed, "could not read the review result, please retry")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
