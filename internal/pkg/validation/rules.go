package validation

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Custom validator tags
const (
	// TagNotBlank rejects strings that are empty after trimming spaces
	TagNotBlank = "notblank"
	// TagMimeType accepts "type/subtype" media types
	TagMimeType = "mimetype"
)

// MimeTypePattern matches type/subtype with an optional parameter list
var MimeTypePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9!#$&^_.+\-]*/[a-z0-9][a-z0-9!#$&^_.+\-]*(\s*;.*)?$`)

// RegisterRules installs the custom tags on v
func RegisterRules(v *validator.Validate) error {
	if err := v.RegisterValidation(TagNotBlank, notBlank); err != nil {
		return err
	}
	return v.RegisterValidation(TagMimeType, mimeType)
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func mimeType(fl validator.FieldLevel) bool {
	value := strings.ToLower(fl.Field().String())
	if value == "" {
		return true
	}
	return MimeTypePattern.MatchString(value)
}
