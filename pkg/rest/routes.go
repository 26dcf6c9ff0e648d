package rest

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type HttpMethod int

const (
	GET HttpMethod = iota
	POST
	PUT
	PATCH
	DELETE
)

var methodNames = [...]string{
	GET:    http.MethodGet,
	POST:   http.MethodPost,
	PUT:    http.MethodPut,
	PATCH:  http.MethodPatch,
	DELETE: http.MethodDelete,
}

func (m HttpMethod) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return fmt.Sprintf("HttpMethod(%d)", int(m))
	}
	return methodNames[m]
}

func (m HttpMethod) valid() bool {
	return m >= 0 && int(m) < len(methodNames)
}

// Route is mounted at /<Group>/<Path>.
type Route struct {
	Method      HttpMethod
	Group       string
	Path        string
	HandlerFunc gin.HandlerFunc
}

func NewRoute(method HttpMethod, group, path string, handler gin.HandlerFunc) Route {
	return Route{Method: method, Group: group, Path: path, HandlerFunc: handler}
}

// Register mounts routes on router grouped by prefix. A middleware only
// wraps routes of the group it names, and is attached before them.
func Register(router *gin.Engine, routes []Route, middlewares []Middleware) error {
	groups := map[string]*gin.RouterGroup{}
	groupFor := func(name string) *gin.RouterGroup {
		name = strings.Trim(name, "/")
		g, ok := groups[name]
		if !ok {
			g = router.Group("/" + name)
			groups[name] = g
		}
		return g
	}

	for _, m := range middlewares {
		groupFor(m.Group).Use(m.Handler)
	}
	for _, r := range routes {
		if !r.Method.valid() {
			return fmt.Errorf("unrecognized HTTP method %s for /%s/%s", r.Method, r.Group, r.Path)
		}
		groupFor(r.Group).Handle(r.Method.String(), r.Path, r.HandlerFunc)
	}
	return nil
}
