// internal/utils/validator.go
package utils

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/javajoker/party-props-backend/internal/models"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	validate.RegisterValidation("listing_category", validateCategory)
	validate.RegisterValidation("listing_theme", validateTheme)
	validate.RegisterValidation("listing_condition", validateCondition)
	validate.RegisterValidation("rental_duration", validateRentalDuration)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateCategory(fl validator.FieldLevel) bool {
	return models.IsCategory(fl.Field().String())
}

// An empty theme is allowed; a set one must come from the catalog.
func validateTheme(fl validator.FieldLevel) bool {
	theme := fl.Field().String()
	return theme == "" || models.IsTheme(theme)
}

func validateCondition(fl validator.FieldLevel) bool {
	return models.IsCondition(fl.Field().String())
}

func validateRentalDuration(fl validator.FieldLevel) bool {
	return models.IsRentalDuration(fl.Field().String())
}

type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []FieldError {
	var fieldErrors []FieldError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			fieldErrors = append(fieldErrors, FieldError{
				Field:   e.Field(),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return fieldErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "required_if":
		return e.Field() + " is required"
	case "numeric":
		return e.Field() + " must be a number"
	case "gt":
		return e.Field() + " must be greater than " + e.Param()
	case "min":
		return e.Field() + " must be at least " + e.Param() + " characters"
	case "max":
		return e.Field() + " must be at most " + e.Param() + " characters"
	case "listing_category":
		return "Please choose a category from the list"
	case "listing_theme":
		return "Please choose a theme from the list"
	case "listing_condition":
		return "Please choose a condition from the list"
	case "rental_duration":
		return "Please choose a rental duration from the list"
	default:
		return e.Field() + " is invalid"
	}
}
