package errors

import (
	stderrors "errors"
	"fmt"
)

// Sanitize prepares an error for exposure outside the system (e.g. in a bounce
// email back to a sender). StandardError messages are written for users, so
// code and message survive; details, which may carry SQL text, file paths or
// other internals, do not. Anything else collapses to a generic message.
func Sanitize(err error) error {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return fmt.Errorf("%s", stdErr.Message)
	}
	return stderrors.New("an error occurred processing the request")
}
