package widget

import (
	"regexp"
	"strings"
)

// ConfigField describes a required configuration field for a vendor adapter
type ConfigField struct {
	Key         string `json:"key"`
	Required    bool   `json:"required"`
	Type        string `json:"type"` // "string", "url", "boolean"
	Description string `json:"description"`
	Example     string `json:"example"`
	Pattern     string `json:"pattern,omitempty"`   // regex pattern for validation
	MinLength   int    `json:"minLength,omitempty"` // minimum length for string fields
	MaxLength   int    `json:"maxLength,omitempty"` // maximum length for string fields
}

// ValidateConfigFields validates configuration against provided field
// definitions. Every violation is a CredentialError; there are no silent
// substitutions for missing or malformed values.
func ValidateConfigFields(vendorName string, conf map[string]string, requiredFields []ConfigField) error {
	for _, field := range requiredFields {
		value, exists := conf[field.Key]
		if !exists || strings.TrimSpace(value) == "" {
			if !field.Required {
				continue
			}
			return &CredentialError{Vendor: vendorName, Field: field.Key, Reason: "required field is missing"}
		}

		if err := validateFieldType(vendorName, field, value); err != nil {
			return err
		}

		if err := validateFieldPattern(vendorName, field, value); err != nil {
			return err
		}

		if err := validateFieldLength(vendorName, field, value); err != nil {
			return err
		}
	}

	return nil
}

// validateFieldType validates field based on its type
func validateFieldType(vendorName string, field ConfigField, value string) error {
	switch field.Type {
	case "boolean":
		if value != "true" && value != "false" {
			return &CredentialError{Vendor: vendorName, Field: field.Key, Reason: "must be 'true' or 'false'"}
		}
		return nil
	default:
		// String and URL fields are covered by pattern and length checks
		return nil
	}
}

// validateFieldPattern validates field against regex pattern
func validateFieldPattern(vendorName string, field ConfigField, value string) error {
	if field.Key == "environment" {
		if value != string(EnvironmentSandbox) && value != string(EnvironmentProduction) {
			return &CredentialError{Vendor: vendorName, Field: field.Key, Reason: "environment must be one of: sandbox, production"}
		}
		return nil
	}

	if field.Pattern == "" {
		return nil
	}

	matched, err := regexp.MatchString(field.Pattern, value)
	if err != nil {
		return &CredentialError{Vendor: vendorName, Field: field.Key, Reason: "invalid validation pattern: " + err.Error()}
	}

	if !matched {
		return &CredentialError{Vendor: vendorName, Field: field.Key, Reason: "does not match required format"}
	}

	return nil
}

// validateFieldLength validates field length constraints
func validateFieldLength(vendorName string, field ConfigField, value string) error {
	if field.MinLength > 0 && len(value) < field.MinLength {
		return &CredentialError{Vendor: vendorName, Field: field.Key, Reason: "value is too short"}
	}

	if field.MaxLength > 0 && len(value) > field.MaxLength {
		return &CredentialError{Vendor: vendorName, Field: field.Key, Reason: "value is too long"}
	}

	return nil
}
