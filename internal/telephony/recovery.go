package telephony

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"foreclosure-voice/internal/ivr"
	"foreclosure-voice/internal/twiml"
	"foreclosure-voice/pkg/logger"
)

// apologyDoc is rendered once so the error path cannot itself fail.
var apologyDoc = mustRender(ivr.TechnicalDifficulties())

func mustRender(r *twiml.Response) []byte {
	b, err := r.Render()
	if err != nil {
		panic(err)
	}
	return b
}

func writeApology(c *gin.Context, status int) {
	c.Data(status, twiml.ContentType, apologyDoc)
	c.Abort()
}

// Recovery turns a panic on a webhook route into valid apology markup with a
// 500 status. A live caller must never receive an empty or broken body.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if p := recover(); p != nil {
				logger.FromGin(c).Error("webhook panic", "panic", p, "path", c.Request.URL.Path)
				if c.Writer.Written() {
					c.Abort()
					return
				}
				writeApology(c, http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}
