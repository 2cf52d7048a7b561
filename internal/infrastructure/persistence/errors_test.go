package persistence

import (
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want shared.ErrorKind
	}{
		{"record not found", gorm.ErrRecordNotFound, shared.KindNotFound},
		{"duplicate key", gorm.ErrDuplicatedKey, shared.KindConflict},
		{"foreign key", gorm.ErrForeignKeyViolated, shared.KindConflict},
		{"bad connection", driver.ErrBadConn, shared.KindDependencyUnavailable},
		{"domain error passes through", shared.NewValidationError("bad"), shared.KindValidation},
		{"anything else", errors.New("syntax error"), shared.KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shared.KindOf(translateError(tt.err, "supplier", 1)))
		})
	}
	assert.NoError(t, translateError(nil, "supplier", 1))
}
