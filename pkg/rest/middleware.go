package rest

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/id-Mask/smart-contracts/pkg/logger"
)

type Middleware struct {
	Group   string
	Handler gin.HandlerFunc
}

func NewMiddleware(group string, handler gin.HandlerFunc) Middleware {
	return Middleware{Group: group, Handler: handler}
}

// RequestLogger replaces gin's access log with the structured logger. Server
// errors are logged at warn, everything else at debug.
func RequestLogger(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()
		log := logger.OrDefault(l)
		if status >= 500 {
			log.Warnf("%s %s -> %d (%s) %s", c.Request.Method, path, status, time.Since(start), c.Errors.String())
			return
		}
		log.Debugf("%s %s -> %d (%s)", c.Request.Method, path, status, time.Since(start))
	}
}
