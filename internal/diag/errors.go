package diag

import "fmt"

// Wrap attaches msg as context to err using the standard %w verb, so
// callers can still errors.Is/As through to the original cause.
func Wrap(err error, msg string) error {
	if err == nil {
		return fmt.Errorf("%s", msg)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
