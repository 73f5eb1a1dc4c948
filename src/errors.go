package lmrdecode

import (
	"errors"
	"fmt"
)

// ErrConfiguration is wrapped by every error caused by a bad decoder
// configuration: unknown decoder types, malformed filter specifications,
// inconsistent sync patterns and so on.
//
// These only ever come back from construction.  Once a pipeline exists,
// processing never fails; bad input simply produces no messages.
var ErrConfiguration = errors.New("configuration error")

func configError(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, a...))
}
