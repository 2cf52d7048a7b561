// Package router assembles the gin engine and the versioned API routes.
package router

import (
	"github.com/erp/supplier-service/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// Route is one endpoint. Roles lists the roles allowed to call it; an empty
// list admits any authenticated caller.
type Route struct {
	Method   string
	Path     string
	Roles    []string
	Handlers []gin.HandlerFunc
}

// Resource is a set of routes sharing a path prefix and middleware
type Resource struct {
	Prefix     string
	Middleware []gin.HandlerFunc
	Routes     []Route
}

// With returns a copy of the resource with mw appended to its middleware
func (r Resource) With(mw ...gin.HandlerFunc) Resource {
	r.Middleware = append(append([]gin.HandlerFunc(nil), r.Middleware...), mw...)
	return r
}

func route(method, path string, roles []string, handlers ...gin.HandlerFunc) Route {
	return Route{Method: method, Path: path, Roles: roles, Handlers: handlers}
}

// Mount registers the resources under /api/<version>. The role check runs
// after the resource middleware and ahead of the route's own handlers.
func Mount(engine *gin.Engine, version string, resources ...Resource) *gin.RouterGroup {
	api := engine.Group("/api/" + version)
	for _, res := range resources {
		group := api.Group(res.Prefix, res.Middleware...)
		for _, rt := range res.Routes {
			chain := rt.Handlers
			if len(rt.Roles) > 0 {
				chain = append([]gin.HandlerFunc{middleware.RequireRoles(rt.Roles...)}, chain...)
			}
			group.Handle(rt.Method, rt.Path, chain...)
		}
	}
	return api
}
