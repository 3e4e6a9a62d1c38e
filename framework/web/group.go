package web

import (
	"strings"
)

// Group wraps the App for wrapping multiple handlers with middlewares.
type Group struct {
	app         *App
	prefixPath  string
	middlewares []Middleware
}

// NewGroup initializes a group of http handlers, with a bunch of middlewares.
func NewGroup(app *App, prefixPath string, mw ...Middleware) *Group {
	return &Group{
		app,
		prefixPath,
		mw,
	}
}

func (g *Group) withGroupMiddlewares(mw []Middleware) []Middleware {
	middlewares := make([]Middleware, 0, len(g.middlewares)+len(mw))
	middlewares = append(middlewares, g.middlewares...)

	return append(middlewares, mw...)
}

// Handle uses our app.Handle mechanism for mounting Handlers for a given HTTP verb and path pair.
// it wraps a group of handlers with the given middlewares.
func (g *Group) Handle(verb string, path string, handler Handler, mw ...Middleware) {
	g.app.Handle(verb, g.prefixPath+path, handler, g.withGroupMiddlewares(mw)...)
}

// Post executes a http POST request, within a group, with the given handlers.
func (g *Group) Post(path string, handler Handler, mw ...Middleware) {
	g.app.Post(g.prefixPath+path, handler, g.withGroupMiddlewares(mw)...)
}

// Get executes a http GET request, within a group, with the given handlers.
func (g *Group) Get(path string, handler Handler, mw ...Middleware) {
	g.app.Get(g.prefixPath+path, handler, g.withGroupMiddlewares(mw)...)
}

// NewSubgroup initializes a subgroup, within a group, with a bunch of additional middlewares.
func (g *Group) NewSubgroup(prefixPath string, mw ...Middleware) *Group {
	path := strings.Join([]string{
		g.prefixPath,
		prefixPath,
	}, "")

	return &Group{
		g.app,
		path,
		g.withGroupMiddlewares(mw),
	}
}
