package repositories

import (
	"database/sql/driver"
	"errors"
	"net"

	"gorm.io/gorm"

	"alfredoptarigan/resume-matcher/internal/apperror"
)

// classify maps database failures onto error kinds: missing rows are
// NotFound, dropped connections are retryable, everything else is Internal.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var netErr net.Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperror.Wrap(apperror.KindNotFound, op, err)
	case errors.Is(err, driver.ErrBadConn), errors.As(err, &netErr):
		return apperror.Transient(op, err)
	}

	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Internal(op, err)
}
