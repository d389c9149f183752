package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindPermissionDenied     ErrorKind = "permission_denied"
	KindCameraUnavailable    ErrorKind = "camera_unavailable"
	KindExtractionFailed     ErrorKind = "extraction_failed"
	KindContentRejected      ErrorKind = "content_rejected"
	KindGenerationFailed     ErrorKind = "generation_failed"
	KindConfigurationMissing ErrorKind = "configuration_missing"
	KindInvalidInput         ErrorKind = "invalid_input"
	KindBusy                 ErrorKind = "busy"
	KindUnknown              ErrorKind = "unknown"
)

// User-facing messages.
const (
	MsgPermissionDenied  = "Camera access was denied. Allow camera permission or upload a screenshot instead."
	MsgCameraUnavailable = "No camera is available on this device. Upload a screenshot instead."
	MsgExtractionFailed  = "Could not read the text from the screenshot. Please try again or type it manually."
	MsgGenerationFailed  = "Failed to get advice from Wingman. The model might be busy, please try again."
	MsgSpeechless        = "Wingman is speechless... Try rephrasing or a different screenshot."
	MsgMissingInput      = "Please enter her message or upload a screenshot."
	MsgBusy              = "Wingman is still working on the last request."
)

// Error is the tagged error that crosses the pipeline boundary. Message is
// safe to show to the user; Err keeps the underlying cause for logs.
type Error struct {
	Kind    ErrorKind
	Reason  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, &Error{Kind: k})
// works as a kind check.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

const msgUnknown = "An unknown error occurred."

// AsError returns the first *Error in err's chain, or wraps err as
// KindUnknown with a generic message.
func AsError(err error) *Error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return &Error{Kind: KindUnknown, Message: msgUnknown, Err: err}
}

// UserMessage returns the message to show for err.
func UserMessage(err error) string {
	if de := AsError(err); de.Message != "" {
		return de.Message
	}
	return msgUnknown
}

func NewPermissionDenied(cause error) *Error {
	return &Error{Kind: KindPermissionDenied, Message: MsgPermissionDenied, Err: cause}
}

func NewCameraUnavailable(cause error) *Error {
	return &Error{Kind: KindCameraUnavailable, Message: MsgCameraUnavailable, Err: cause}
}

func NewExtractionFailed(cause error) *Error {
	return &Error{Kind: KindExtractionFailed, Message: MsgExtractionFailed, Err: cause}
}

func NewGenerationFailed(msg string, cause error) *Error {
	if msg == "" {
		msg = MsgGenerationFailed
	}
	return &Error{Kind: KindGenerationFailed, Message: msg, Err: cause}
}

// NewContentRejected builds the content-policy rejection. The reason given by
// the moderation verdict is kept verbatim in both Reason and Message.
func NewContentRejected(reason string) *Error {
	msg := "This message was flagged as inappropriate, so Wingman won't help with it."
	if reason != "" {
		msg = fmt.Sprintf("This message was flagged as inappropriate (%s), so Wingman won't help with it.", reason)
	}
	return &Error{Kind: KindContentRejected, Reason: reason, Message: msg}
}

func NewInvalidInput(msg string) *Error {
	return &Error{Kind: KindInvalidInput, Message: msg}
}

func NewConfigurationMissing(key string) *Error {
	return &Error{Kind: KindConfigurationMissing, Reason: key, Message: key + " environment variable not set"}
}

var ErrBusy = &Error{Kind: KindBusy, Message: MsgBusy}
