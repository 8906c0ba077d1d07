package sim

import (
	"fmt"
	"strings"
	"unicode"
)

// A Named object is an object that has a name.
type Named interface {
	Name() string
}

// ValidateName returns an error if the name is empty, contains white space, or
// has an empty element. Names are dot-separated, e.g. "Switch0.InboundBuf".
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name must not be empty")
	}

	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("name %q must not contain white space", name)
	}

	for _, token := range strings.Split(name, ".") {
		if token == "" {
			return fmt.Errorf("name %q has an empty element", name)
		}
	}

	return nil
}

// NameMustBeValid panics if the name is not valid.
func NameMustBeValid(name string) {
	if err := ValidateName(name); err != nil {
		panic(err.Error())
	}
}
