package extension

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidIdentifier is returned when a string is not of the form
// "publisher.name".
var ErrInvalidIdentifier = errors.New("invalid extension identifier")

// ID identifies a marketplace extension by publisher and name.
type ID struct {
	Publisher string
	Name      string
}

// Parse splits "publisher.name" into an ID. Exactly one dot separating two
// non-empty segments is accepted. Case is preserved.
func Parse(s string) (ID, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
	}
	return ID{Publisher: parts[0], Name: parts[1]}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// constants.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the "publisher.name" form.
func (id ID) String() string {
	return id.Publisher + "." + id.Name
}
