// Package render owns the response envelopes: every success and every
// failure in the request pipeline goes out through here.
package render

import (
	"net/http"
	"runtime/debug"

	"tourbook/internal/domain"
	"tourbook/internal/utils"

	"github.com/gin-gonic/gin"
)

var production bool

// SetMode switches the normalizer between verbose (development) and terse
// (production) output. Called once at startup.
func SetMode(prod bool) { production = prod }

// Success writes the standard success envelope.
func Success(c *gin.Context, status int, data gin.H) {
	c.JSON(status, gin.H{
		"status": "success",
		"data":   data,
	})
}

// List writes the success envelope for list endpoints, with a result count.
func List(c *gin.Context, name string, count int, docs any) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"results": count,
		"data":    gin.H{name: docs},
	})
}

// Error is the single normalizer for request failures. Failures without a
// status default to 500/"error". In development the envelope carries the
// failure and a stack; in production only operational messages are surfaced
// and everything else is logged server-side and reduced to a generic line.
func Error(c *gin.Context, err error) {
	app := domain.Wrap(err)
	if app == nil {
		return
	}

	if !production {
		c.AbortWithStatusJSON(app.Code, gin.H{
			"status":  app.StatusClass(),
			"message": app.Message,
			"err":     app.Error(),
			"stack":   string(debug.Stack()),
		})
		return
	}

	if app.Operational {
		c.AbortWithStatusJSON(app.Code, gin.H{
			"status":  app.StatusClass(),
			"message": app.Message,
		})
		return
	}

	utils.Log.WithField("path", c.Request.URL.Path).WithError(err).Error("unexpected failure")
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"status":  "error",
		"message": "Something went wrong",
	})
}
