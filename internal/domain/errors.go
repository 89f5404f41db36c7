package domain

import "errors"

// Kind classifies an Error so the transport layer can map it to an HTTP status.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindTooManyRequests
	KindNotImplemented
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	case KindTooManyRequests:
		return "too many requests"
	case KindNotImplemented:
		return "not implemented"
	default:
		return "internal"
	}
}

// Error is the single application error type. Message is safe to show to clients
// unless Kind is KindInternal and Public is false. Err carries the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Public  bool
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) holds
// for every not-found error regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinel errors for kind discrimination with errors.Is.
var (
	ErrBadRequest      = &Error{Kind: KindBadRequest, Message: "bad request"}
	ErrUnauthorized    = &Error{Kind: KindUnauthorized, Message: "unauthorized"}
	ErrForbidden       = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrNotFound        = &Error{Kind: KindNotFound, Message: "not found"}
	ErrConflict        = &Error{Kind: KindConflict, Message: "conflict"}
	ErrTooManyRequests = &Error{Kind: KindTooManyRequests, Message: "too many requests"}
	ErrNotImplemented  = &Error{Kind: KindNotImplemented, Message: "not implemented"}
)

func BadRequest(msg string) error      { return &Error{Kind: KindBadRequest, Message: msg} }
func Unauthorized(msg string) error    { return &Error{Kind: KindUnauthorized, Message: msg} }
func Forbidden(msg string) error       { return &Error{Kind: KindForbidden, Message: msg} }
func NotFound(msg string) error        { return &Error{Kind: KindNotFound, Message: msg} }
func Conflict(msg string) error        { return &Error{Kind: KindConflict, Message: msg} }
func TooManyRequests(msg string) error { return &Error{Kind: KindTooManyRequests, Message: msg} }
func NotImplemented(msg string) error  { return &Error{Kind: KindNotImplemented, Message: msg} }

// Internal wraps an unexpected failure. The cause is kept for logging only.
func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// Failure is an internal error whose message is still shown to the client,
// e.g. a mail delivery failure the user can retry.
func Failure(msg string, err error) error {
	return &Error{Kind: KindInternal, Message: msg, Public: true, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the client-facing message of err, falling back to fallback
// for errors that are not an *Error or are internal.
func MessageOf(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && (e.Kind != KindInternal || e.Public) {
		return e.Message
	}
	return fallback
}
