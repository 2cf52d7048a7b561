package middleware

import (
	"reflect"
	"strings"

	"github.com/erp/supplier-service/internal/domain/trade"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SetupValidator reports field names by their json or form tag and
// registers the order enumerations as validation tags
func SetupValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	if err := v.RegisterValidation("po_status", func(fl validator.FieldLevel) bool {
		return trade.Status(fl.Field().String()).IsValid()
	}); err != nil {
		return err
	}
	return v.RegisterValidation("supplier_response", func(fl validator.FieldLevel) bool {
		return trade.SupplierResponse(fl.Field().String()).IsValid()
	})
}
