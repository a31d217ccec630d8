package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-admissions/internal/middleware"
	"github.com/noah-isme/academy-admissions/pkg/middleware/requestid"
)

// requestMeta returns the response meta block with processing time and request id filled in.
func requestMeta(c *gin.Context, start time.Time) map[string]interface{} {
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	if id := requestid.Value(c); id != "" {
		meta["request_id"] = id
	}
	return meta
}
