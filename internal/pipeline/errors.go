package pipeline

import (
	"errors"
	"fmt"
)

// ErrBusy is returned when a run is triggered while another is in flight.
// It is not a failure: the trigger is ignored and no state changes.
var ErrBusy = errors.New("analysis already in progress")

// FailureMessage is the user-facing message for every non-validation failure.
const FailureMessage = "analysis failed: check that the screenshots are legible and the Gemini API settings are correct"

// ValidationMessage is the user-facing message for an unmet slot precondition.
const ValidationMessage = "upload at least one stock ranking image and at least one theme image"

// ValidationError reports that the slot contents do not meet the preconditions
// for a run. No network call is made.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// RemoteExtractionError reports that the extraction endpoint could not produce
// a result, either because every attempt failed or because a successful
// response carried no text.
type RemoteExtractionError struct {
	Attempts int
	Empty    bool
	Err      error
}

func (e *RemoteExtractionError) Error() string {
	if e.Empty {
		return "remote extraction returned no text"
	}
	return fmt.Sprintf("remote extraction failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RemoteExtractionError) Unwrap() error { return e.Err }

// MalformedResponseError reports that the response text is not valid structured data.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed extraction response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// UserMessage maps a run error to the message shown to the user. Validation
// errors keep their own message; every other kind shares FailureMessage.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Msg
	}
	return FailureMessage
}

// Kind names the error category for logging.
func Kind(err error) string {
	var (
		verr *ValidationError
		rerr *RemoteExtractionError
		merr *MalformedResponseError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.As(err, &verr):
		return "validation"
	case errors.As(err, &rerr):
		return "remote_extraction"
	case errors.As(err, &merr):
		return "malformed_response"
	}
	return "internal"
}
