package vault

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// MinPasswordLength is the length below which a non-empty password draws a warning.
const MinPasswordLength = 3

// Validation errors
var (
	ErrNameRequired     = errors.New("vault: name is required")
	ErrPasswordMismatch = errors.New("vault: passwords do not match")
	ErrCustomKeyBlank   = errors.New("vault: custom field name must not be blank")
)

// Input is the set of values collected by an add or edit form.
type Input struct {
	Name     string
	Password string
	// Confirm is the repeated password. Nil means no confirmation was collected.
	Confirm *string
	Custom  map[string]string
}

// ValidateInput checks form values before they reach the store.
func ValidateInput(in Input) error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrNameRequired
	}
	if in.Confirm != nil && in.Password != "" && in.Password != *in.Confirm {
		return ErrPasswordMismatch
	}
	for k := range in.Custom {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("%w: got %q", ErrCustomKeyBlank, k)
		}
	}
	return nil
}

// PasswordWarnings returns non-fatal remarks about a password.
func PasswordWarnings(password string) []string {
	if password != "" && utf8.RuneCountInString(password) < MinPasswordLength {
		return []string{fmt.Sprintf("password should be at least %d characters long", MinPasswordLength)}
	}
	return nil
}

// CustomFieldWarnings flags custom keys that share a name with a base field.
// Such values are stored but a field-restricted search only sees the base field.
func CustomFieldWarnings(custom map[string]string) []string {
	var warnings []string
	for k := range custom {
		if IsBaseField(k) {
			warnings = append(warnings, fmt.Sprintf("custom field %q is shadowed by the base field of the same name", k))
		}
	}
	slices.Sort(warnings)
	return warnings
}
