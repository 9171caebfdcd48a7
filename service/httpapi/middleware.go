package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/viant/moderation/internal/logging"
	"github.com/viant/moderation/model"
	"github.com/viant/moderation/tracing"
)

func requestLog(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		ctx, span := tracing.StartSpan(c.Request.Context(), c.Request.Method+" "+c.FullPath(), tracing.KindServer)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		span.SetStatusFromHTTPCode(status)
		tracing.EndSpan(span, nil)
		logger.DebugContext(ctx, "http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"elapsed", time.Since(started))
	}
}

func recovery(logger *logging.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.ErrorContext(c.Request.Context(), "panic recovered", "panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody(model.ErrPersistence))
	})
}
