package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/devicelink/core/internal/models"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)

var once sync.Once

// Register installs the domain validators on gin's binding engine. Safe to call repeatedly.
func Register() {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		RegisterOn(v)
	})
}

// RegisterOn installs the domain validators on v.
func RegisterOn(v *validator.Validate) {
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return models.Category(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("condition", func(fl validator.FieldLevel) bool {
		return models.Condition(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("listing_status", func(fl validator.FieldLevel) bool {
		return models.ListingStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return ValidUsername(fl.Field().String())
	})
}

// ValidUsername reports whether s is 3-32 characters of letters, digits, '_', '.' or '-'.
func ValidUsername(s string) bool {
	return usernamePattern.MatchString(s)
}

// Message renders a binding error as one human readable sentence.
func Message(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body"
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "username":
		return "username must be 3-32 characters of letters, digits, '_', '.' or '-'"
	case "category":
		return "category must be one of Laptop, Phone, Tablet, Other"
	case "condition":
		return "condition must be one of Excellent, Good, Fair, Poor"
	case "listing_status":
		return "status must be one of ACTIVE, COMPLETED, DELETED"
	}
	return fmt.Sprintf("%s is invalid", field)
}
