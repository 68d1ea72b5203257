package services

import (
	"context"
	"errors"

	"github.com/eadens/cakeworld/pkg/apperr"
	"github.com/eadens/cakeworld/pkg/logger"
	"gorm.io/gorm"
)

// dbErr classifies a repository error. Already-classified errors pass
// through; the raw cause of anything else is logged and kept off the wire.
func dbErr(ctx context.Context, op string, err error, notFound string) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Wrap(op, apperr.NotFound, err, notFound)
	}
	logger.WithCtx(ctx).Error("database error", "op", op, "error", err)
	return apperr.Wrap(op, apperr.PersistenceFailure, err, "could not reach the database")
}

func requireUser(op string, anonymous bool, message string) error {
	if anonymous {
		return apperr.New(op, apperr.AuthenticationRequired, message)
	}
	return nil
}
