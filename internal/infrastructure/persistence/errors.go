package persistence

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/erp/supplier-service/internal/domain/shared"
	"gorm.io/gorm"
)

// translateError maps gorm and driver errors onto domain errors. The
// database is opened with TranslateError so unique and foreign key
// violations arrive as gorm sentinels for both postgres and sqlite.
func translateError(err error, entity string, id any) error {
	if err == nil {
		return nil
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.NewNotFoundError(entity, id)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.NewConflictError(fmt.Sprintf("%s already exists", entity))
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return shared.NewConflictError(fmt.Sprintf("%s is referenced by other records", entity))
	case errors.Is(err, driver.ErrBadConn):
		return shared.NewDependencyUnavailableError("database", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return shared.NewDependencyUnavailableError("database", err)
	}
	return fmt.Errorf("%s: %w", entity, err)
}
