// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"reflect"

	"framex/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		registerOn(v)
	}
}

func registerOn(v *validator.Validate) {
	// Validate decimal.Decimal fields through their string form so that
	// tags like required and decimal_positive apply to the value.
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})

	_ = v.RegisterValidation("transaction_type", validateTransactionType)
	_ = v.RegisterValidation("master_data_type", validateMasterDataType)
	_ = v.RegisterValidation("role", validateRole)
	_ = v.RegisterValidation("decimal_positive", validateDecimalPositive)
	_ = v.RegisterValidation("decimal_places2", validateDecimalPlaces2)
}

func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

func validateTransactionType(fl validator.FieldLevel) bool {
	return models.TransactionType(fl.Field().String()).Valid()
}

func validateMasterDataType(fl validator.FieldLevel) bool {
	return models.MasterDataType(fl.Field().String()).Valid()
}

func validateRole(fl validator.FieldLevel) bool {
	switch models.Role(fl.Field().String()) {
	case models.RoleAdmin, models.RoleUser:
		return true
	}
	return false
}

func validateDecimalPositive(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	return err == nil && d.IsPositive()
}

// validateDecimalPlaces2 rejects amounts with sub-cent precision.
func validateDecimalPlaces2(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	return err == nil && d.Equal(d.Round(2))
}
