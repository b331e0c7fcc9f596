package controllers

import (
	"compress/gzip"
	"net/http"
	"time"

	"github.com/corp-resolver/app/responses"
	"github.com/gin-gonic/gin"
)

// RequestIDKey key lưu request ID trong gin.Context
const RequestIDKey = "request_id"

// respondError trả về ErrorResponse với timestamp và request ID
func respondError(c *gin.Context, status int, code, message string, details interface{}) {
	c.JSON(status, responses.ErrorResponse{
		Error:     code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().Format(time.RFC3339),
		RequestID: c.GetString(RequestIDKey),
	})
}

// respondSuccess trả về SuccessResponse
func respondSuccess(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// gzipResponseWriter wrapper cho gzip writer
type gzipResponseWriter struct {
	gin.ResponseWriter
	gzWriter *gzip.Writer
}

func (w *gzipResponseWriter) Write(data []byte) (int, error) {
	return w.gzWriter.Write(data)
}

func (w *gzipResponseWriter) Flush() {
	w.gzWriter.Flush()
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
