package domain

import "errors"

// GenericSendFailure is the user-facing reason used when a failed send
// carried no readable explanation (transport error, empty body, etc).
const GenericSendFailure = "Network error. Please check your connection and try again."

// ErrCharacterNotFound is returned by character stores for unknown ids.
var ErrCharacterNotFound = errors.New("character not found")

// SendError is a rejected send with a human-readable reason extracted from
// the backend's response body.
type SendError struct {
	Reason string
}

func (e *SendError) Error() string {
	return e.Reason
}

// SendReason extracts the user-visible reason from a send failure, falling
// back to GenericSendFailure when the error carried none.
func SendReason(err error) string {
	var se *SendError
	if errors.As(err, &se) && se.Reason != "" {
		return se.Reason
	}
	return GenericSendFailure
}
