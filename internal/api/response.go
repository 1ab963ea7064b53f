package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error writes the uniform {"error": msg} envelope with the given status.
func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

// Accepted acknowledges work that was queued rather than completed.
func Accepted(c *gin.Context, body gin.H) {
	c.JSON(http.StatusAccepted, body)
}

// AbortUnauthorized rejects the request and stops the handler chain;
// for use from middleware and identity checks.
func AbortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

func BadRequest(c *gin.Context, msg string) { Error(c, http.StatusBadRequest, msg) }

func Unauthorized(c *gin.Context) { Error(c, http.StatusUnauthorized, "unauthorized") }

func Forbidden(c *gin.Context, msg string) { Error(c, http.StatusForbidden, msg) }

func NotFound(c *gin.Context, msg string) { Error(c, http.StatusNotFound, msg) }

func Conflict(c *gin.Context, msg string) { Error(c, http.StatusConflict, msg) }

func Internal(c *gin.Context, msg string) { Error(c, http.StatusInternalServerError, msg) }
