package dto

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var keyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*\.[a-z][a-z0-9_]*$`)

// NewValidator builds a validator with the registry's custom rules installed.
func NewValidator() *validator.Validate {
	validate := validator.New()
	RegisterCustomValidators(validate)
	return validate
}

// RegisterCustomValidators registers custom validation rules for the registry module
func RegisterCustomValidators(validate *validator.Validate) error {
	if err := validate.RegisterValidation("permission_key", validatePermissionKey); err != nil {
		return fmt.Errorf("failed to register permission_key validator: %w", err)
	}
	if err := validate.RegisterValidation("module_tag", validateModuleTag); err != nil {
		return fmt.Errorf("failed to register module_tag validator: %w", err)
	}
	return nil
}

// validatePermissionKey validates the dotted module.action key format
func validatePermissionKey(fl validator.FieldLevel) bool {
	return keyPattern.MatchString(fl.Field().String())
}

// validateModuleTag validates a bare module grouping tag
func validateModuleTag(fl validator.FieldLevel) bool {
	matched, _ := regexp.MatchString(`^[a-z][a-z0-9_]{1,49}$`, fl.Field().String())
	return matched
}

// ValidateKey checks a caller-supplied permission key against the custom rule
// and returns user-friendly messages.
func ValidateKey(validate *validator.Validate, key string) []string {
	if err := validate.Var(key, "permission_key"); err != nil {
		return []string{fmt.Sprintf("permission key %q must match module.action (lowercase, underscores)", key)}
	}
	return nil
}

// ValidateModule checks a caller-supplied module tag against the custom rule.
func ValidateModule(validate *validator.Validate, module string) []string {
	if err := validate.Var(module, "module_tag"); err != nil {
		return []string{fmt.Sprintf("module %q must be a lowercase tag (letters, digits, underscores)", module)}
	}
	return nil
}
