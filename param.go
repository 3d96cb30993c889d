package tether

import (
	"fmt"
	"slices"
)

// Param declares a query or URL parameter for a route. Declared params are
// resolved before dispatch: defaults are filled in, required and enum
// constraints checked, and the custom validator run.
type Param struct {
	// Name of the query parameter or URL placeholder.
	Name string

	// Default supplies a value when the caller provides none.
	Default string

	// DefaultFunc computes the default at call time and wins over Default.
	DefaultFunc func() string

	// Required rejects the call when no value is supplied or defaulted.
	Required bool

	// Enum restricts the value to a fixed set when non-empty.
	Enum []string

	// Validate runs against the final value when non-nil.
	Validate func(value string) error
}

// resolve returns the effective value for the param, or an error describing
// why the supplied value is unacceptable. An empty return with a nil error
// means the param is simply absent.
func (p Param) resolve(value string) (string, error) {
	if value == "" {
		if p.DefaultFunc != nil {
			value = p.DefaultFunc()
		} else {
			value = p.Default
		}
	}
	if value == "" {
		if p.Required {
			return "", fmt.Errorf("required but not provided")
		}
		return "", nil
	}
	if len(p.Enum) > 0 && !slices.Contains(p.Enum, value) {
		return "", fmt.Errorf("value %q not in %v", value, p.Enum)
	}
	if p.Validate != nil {
		if err := p.Validate(value); err != nil {
			return "", fmt.Errorf("value %q rejected: %w", value, err)
		}
	}
	return value, nil
}
