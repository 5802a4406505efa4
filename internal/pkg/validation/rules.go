package validation

import (
	"fmt"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yigit/unievents/internal/app/models"
)

// Validation rule patterns
var (
	// PhonePattern accepts an optional leading + followed by 7-15 digits
	PhonePattern = `^\+?[0-9]{7,15}$`
)

// CompiledPatterns caches compiled regex patterns for better performance
var CompiledPatterns = struct {
	Phone *regexp.Regexp
}{
	Phone: regexp.MustCompile(PhonePattern),
}

var eventTypes = map[models.EventType]struct{}{
	models.EventTypeWorkshop:  {},
	models.EventTypeSeminar:   {},
	models.EventTypeSocial:    {},
	models.EventTypeSports:    {},
	models.EventTypeCultural:  {},
	models.EventTypeVolunteer: {},
	models.EventTypeOther:     {},
}

// IsEventType reports whether t is one of the known event types
func IsEventType(t models.EventType) bool {
	_, ok := eventTypes[t]
	return ok
}

// Register adds the custom tags (phone, eventtype, usertype) to v
func Register(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"phone": func(fl validator.FieldLevel) bool {
			return CompiledPatterns.Phone.MatchString(fl.Field().String())
		},
		"eventtype": func(fl validator.FieldLevel) bool {
			return IsEventType(models.EventType(fl.Field().String()))
		},
		"usertype": func(fl validator.FieldLevel) bool {
			return models.UserType(fl.Field().String()).IsValid()
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s validation: %w", tag, err)
		}
	}
	return nil
}

// RegisterWithGin installs the custom tags on gin's binding validator
func RegisterWithGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("gin binding validator is not go-playground/validator")
	}
	return Register(v)
}
