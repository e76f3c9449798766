package escpos

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupported reports a command the active dialect does not implement.
	ErrUnsupported = errors.New("unsupported by printer dialect")

	// ErrInvalidArgument reports a malformed operation argument.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrTimeout reports a transfer that moved fewer bytes than requested.
	ErrTimeout = errors.New("operation timeout")

	// ErrNotANumber reports non-digit characters in a Code 128 codeset C payload.
	ErrNotANumber = errors.New("not a number")

	// ErrInvalidLength reports a codeset C payload whose length is not divisible by two.
	ErrInvalidLength = errors.New("length not divisible by two")
)

// StatusError carries the full set of hardware conditions reported by a
// status query. It is a condition report, not a failure of the query
// itself; the set is never empty.
type StatusError struct {
	Status Status
}

func (e *StatusError) Error() string {
	names := make([]string, 0, 4)
	for _, f := range e.Status.Flags() {
		names = append(names, f.String())
	}
	return fmt.Sprintf("printer status: %s", strings.Join(names, ", "))
}
