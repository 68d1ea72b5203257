// Package router wraps chi with named routes and prefix groups that carry
// their own middleware, so route:list and URL building share one table.
package router

import (
	"cmp"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

type Middleware func(http.Handler) http.Handler

// RouteInfo is one named route.
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

type Router struct {
	mux chi.Router

	mu    sync.RWMutex
	named map[string]RouteInfo
}

// Group mounts routes under a prefix behind its middleware.
type Group struct {
	router *Router
	prefix string
	mws    []Middleware
}

func New() *Router {
	return &Router{mux: chi.NewRouter(), named: map[string]RouteInfo{}}
}

func (r *Router) Handler() http.Handler { return r.mux }

// Use adds middleware around every route. It must be called before any
// route is mounted.
func (r *Router) Use(mws ...Middleware) {
	for _, mw := range mws {
		r.mux.Use(mw)
	}
}

// HandleFunc mounts an unnamed handler for every method.
func (r *Router) HandleFunc(path string, h http.HandlerFunc) {
	r.mux.HandleFunc(join(path), h)
}

func (r *Router) Group(prefix string, mws ...Middleware) *Group {
	return &Group{router: r, prefix: join(prefix), mws: slices.Clone(mws)}
}

// Group nests a prefix; the child runs the parent's middleware first.
func (g *Group) Group(prefix string, mws ...Middleware) *Group {
	return &Group{router: g.router, prefix: join(g.prefix, prefix), mws: append(slices.Clone(g.mws), mws...)}
}

func (g *Group) Get(path, name string, h http.HandlerFunc, mws ...Middleware) {
	g.handle(http.MethodGet, path, name, h, mws)
}

func (g *Group) Post(path, name string, h http.HandlerFunc, mws ...Middleware) {
	g.handle(http.MethodPost, path, name, h, mws)
}

func (g *Group) Patch(path, name string, h http.HandlerFunc, mws ...Middleware) {
	g.handle(http.MethodPatch, path, name, h, mws)
}

func (g *Group) Delete(path, name string, h http.HandlerFunc, mws ...Middleware) {
	g.handle(http.MethodDelete, path, name, h, mws)
}

func (g *Group) handle(method, path, name string, h http.HandlerFunc, extra []Middleware) {
	full := join(g.prefix, path)
	var wrapped http.Handler = h
	mws := append(slices.Clone(g.mws), extra...)
	for i := len(mws) - 1; i >= 0; i-- {
		wrapped = mws[i](wrapped)
	}
	g.router.mux.Method(method, full, wrapped)
	if name != "" {
		g.router.name(RouteInfo{Method: method, Path: full, Name: name})
	}
}

// name panics when a route name is reused.
func (r *Router) name(info RouteInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, dup := r.named[info.Name]; dup {
		panic(fmt.Sprintf("router: route name %q used by %s %s and %s %s",
			info.Name, prev.Method, prev.Path, info.Method, info.Path))
	}
	r.named[info.Name] = info
}

func (r *Router) Path(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.named[name]
	return info.Path, ok
}

// Routes lists the named routes ordered by path, then method.
func (r *Router) Routes() []RouteInfo {
	r.mu.RLock()
	out := make([]RouteInfo, 0, len(r.named))
	for _, info := range r.named {
		out = append(out, info)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b RouteInfo) int {
		return cmp.Or(strings.Compare(a.Path, b.Path), strings.Compare(a.Method, b.Method))
	})
	return out
}

// URL fills the {param} placeholders of a named route. Every placeholder
// must be supplied.
func (r *Router) URL(name string, params map[string]string) (string, error) {
	path, ok := r.Path(name)
	if !ok {
		return "", fmt.Errorf("router: no route named %q", name)
	}
	for k, v := range params {
		path = strings.ReplaceAll(path, "{"+k+"}", v)
	}
	if strings.Contains(path, "{") {
		return "", fmt.Errorf("router: route %q needs more parameters: %s", name, path)
	}
	return path, nil
}

// join builds a rooted path from segments, dropping empty ones.
func join(parts ...string) string {
	var segs []string
	for _, p := range parts {
		if t := strings.Trim(p, "/"); t != "" {
			segs = append(segs, t)
		}
	}
	return "/" + strings.Join(segs, "/")
}
