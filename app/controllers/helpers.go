package controllers

import (
	"strconv"

	"github.com/eadens/cakeworld/pkg/apperr"
	"github.com/eadens/cakeworld/pkg/ctx"
)

// uintParam reads a numeric path parameter, rendering a 400 when malformed.
func uintParam(c *ctx.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		c.Fail(apperr.Validation("params", "invalid "+name, map[string]string{name: "The " + name + " must be a positive integer."}))
		return 0, false
	}
	return uint(n), true
}
