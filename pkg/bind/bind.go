// Package bind decodes a JSON request body into a struct and validates it.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/eadens/cakeworld/config"
	"github.com/eadens/cakeworld/pkg/apperr"
	"github.com/eadens/cakeworld/pkg/validate"
)

const defaultMaxBody = 1 << 20

// JSON decodes r.Body into dest, capped at MAX_BODY_BYTES, then runs the
// struct's validate tags. Every failure is a ValidationFailed *apperr.Error;
// field failures carry their messages in Fields.
func JSON(r *http.Request, dest interface{}) error {
	const op = "bind.JSON"

	limit := int64(config.GetInt("MAX_BODY_BYTES", defaultMaxBody))
	if limit <= 0 {
		limit = defaultMaxBody
	}
	r.Body = http.MaxBytesReader(nil, r.Body, limit)

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperr.New(op, apperr.ValidationFailed, fmt.Sprintf("request body too large (max %d bytes)", maxErr.Limit))
		}
		return apperr.Wrap(op, apperr.ValidationFailed, err, "request body must be valid JSON")
	}

	if errs := validate.Struct(dest); validate.HasErrors(errs) {
		return apperr.Validation(op, "validation failed", errs)
	}
	return nil
}
