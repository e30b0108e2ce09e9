package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/iotmarket/logger"
	"github.com/kbukum/iotmarket/observability"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-Id"

// ContextKeyRequestID is the gin context key holding the request id.
const ContextKeyRequestID = "request_id"

// RequestContext gives every request an id (the incoming X-Request-Id or a
// fresh uuid), echoes it in the response and stores it on the request
// context so loggers and handlers further down can read it. The request
// runs inside an http.request span.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(ContextKeyRequestID, id)
		c.Header(HeaderRequestID, id)

		ctx := logger.ContextWithRequestID(c.Request.Context(), id)
		ctx, span := observability.StartSpan(ctx, observability.SpanHTTPRequest)
		defer span.End()
		observability.SetSpanAttribute(ctx, observability.AttrRequestID, id)

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		observability.SetSpanAttribute(ctx, observability.AttrStatus, c.Writer.Status())
	}
}

// RequestID returns the id RequestContext assigned, or "".
func RequestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}
