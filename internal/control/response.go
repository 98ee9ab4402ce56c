// Package control is bqm's REST control plane: a thin gin layer over
// the queue manager, workflow store, worker pool, and MJPEG stream/
// server, guarded by JWT authentication.
package control

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Result is the envelope every control-plane response uses.
// @Description Standard API response wrapper
type Result struct {
	Code    int         `json:"code" example:"0"`
	Message string      `json:"message" example:"success"`
	Data    interface{} `json:"data,omitempty" swaggertype:"object"`
	Error   string      `json:"error,omitempty" example:"error details"`
}

// Success sends data wrapped in a Result with code 0.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Result{Code: 0, Message: "success", Data: data})
}

// Fail sends err wrapped in a Result at statusCode, with an optional
// human-readable message overriding the default "operation failed".
func Fail(c *gin.Context, statusCode int, err error, messages ...string) {
	msg := "operation failed"
	if len(messages) > 0 {
		msg = messages[0]
	}
	result := Result{Code: statusCode, Message: msg}
	if err != nil {
		result.Error = err.Error()
	}
	c.JSON(statusCode, result)
}

func BadRequest(c *gin.Context, err error, message ...string) {
	Fail(c, http.StatusBadRequest, err, message...)
}

func Unauthorized(c *gin.Context, err error, message ...string) {
	Fail(c, http.StatusUnauthorized, err, message...)
}

func NotFound(c *gin.Context, err error, message ...string) {
	Fail(c, http.StatusNotFound, err, message...)
}

func InternalError(c *gin.Context, err error, message ...string) {
	Fail(c, http.StatusInternalServerError, err, message...)
}
