// Package ctx gives API handlers a single request context instead of the
// (http.ResponseWriter, *http.Request) pair:
//
//	func (oc *OrderController) Show(c *ctx.Context) {
//	    order, err := oc.service.Get(c.Context(), c.Principal(), c.Param("id"))
//	    if err != nil {
//	        c.Fail(err)
//	        return
//	    }
//	    c.Success(order)
//	}
//
//	router.Get("/orders/{id}", "orders.show", ctx.Wrap(oc.Show))
package ctx

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/eadens/cakeworld/pkg/apperr"
	"github.com/eadens/cakeworld/pkg/auth"
	"github.com/eadens/cakeworld/pkg/bind"
	"github.com/eadens/cakeworld/pkg/logger"
	"github.com/eadens/cakeworld/pkg/response"
	"github.com/go-chi/chi/v5"
)

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context)

// Wrap adapts a HandlerFunc for the router.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := pool.Get().(*Context)
		c.W, c.R, c.status = w, r, 0
		defer func() {
			c.W, c.R = nil, nil
			pool.Put(c)
		}()
		h(c)
	}
}

// Context wraps one request/response pair. It is only valid inside the
// handler it was passed to.
type Context struct {
	W      http.ResponseWriter
	R      *http.Request
	status int
}

var pool = sync.Pool{New: func() any { return &Context{} }}

// Param returns a path parameter ("/orders/{id}" → c.Param("id")).
func (c *Context) Param(key string) string {
	return chi.URLParam(c.R, key)
}

// Query returns a query-string value, "" when absent.
func (c *Context) Query(key string) string {
	return c.R.URL.Query().Get(key)
}

// Context returns the request context, which carries the request logger and
// the principal.
func (c *Context) Context() context.Context { return c.R.Context() }

// Principal returns the caller attached by middleware.Authenticate, or the
// zero (anonymous) Principal.
func (c *Context) Principal() auth.Principal {
	p, _ := auth.PrincipalFrom(c.R.Context())
	return p
}

// BindJSON decodes and validates the body into dest. On failure it renders
// the error (400 for a malformed body, 422 with field errors) and returns
// false.
//
//	var in services.ReviewInput
//	if !c.BindJSON(&in) {
//	    return
//	}
func (c *Context) BindJSON(dest any) bool {
	if err := bind.JSON(c.R, dest); err != nil {
		c.Fail(err)
		return false
	}
	return true
}

// SetSessionCookie writes an HttpOnly, SameSite=Lax cookie scoped to the
// whole site. A negative maxAge deletes it.
func (c *Context) SetSessionCookie(name, value string, maxAge int, secure bool) {
	http.SetCookie(c.W, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// JSON writes v with the given status.
func (c *Context) JSON(code int, v any) {
	c.W.Header().Set("Content-Type", "application/json")
	c.W.WriteHeader(code)
	c.status = code
	if err := json.NewEncoder(c.W).Encode(v); err != nil {
		logger.WithCtx(c.Context()).Warn("response encode failed", "error", err)
	}
}

// Fail renders a classified error. Server-side failures are logged at ERROR
// with the internal cause, caller mistakes at DEBUG.
func (c *Context) Fail(err error) {
	status := apperr.HTTPStatus(err)
	log := logger.WithCtx(c.Context())
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "path", c.R.URL.Path, "status", status, "error", err)
	} else {
		log.Debug("request rejected", "path", c.R.URL.Path, "status", status, "error", err)
	}
	c.JSON(status, response.FailureEnvelope(err))
}

// Success sends {"status":200,"data":...}.
func (c *Context) Success(data any) {
	c.JSON(http.StatusOK, response.Envelope{Status: http.StatusOK, Data: data})
}

// Created sends {"status":201,"data":...}.
func (c *Context) Created(data any) {
	c.JSON(http.StatusCreated, response.Envelope{Status: http.StatusCreated, Data: data})
}

// WrittenStatus is the status written so far, 0 before any write.
func (c *Context) WrittenStatus() int { return c.status }
