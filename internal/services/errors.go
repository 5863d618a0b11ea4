package services

// Typed service errors. Handlers map these to HTTP status codes centrally;
// nothing below the handler layer knows about HTTP.

// ValidationError reports invalid user input, field by field.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string { return e.Message }

// UnavailableError means the assistant never initialized (missing key or
// failed client construction). Callers must fail fast without network I/O.
type UnavailableError struct {
	Message string
}

func (e *UnavailableError) Error() string { return e.Message }

// BusyError means a turn is already in flight for the session.
type BusyError struct{}

func (e *BusyError) Error() string { return "a reply is still being generated for this conversation" }

// AttachmentError means a photo could not be read or encoded.
type AttachmentError struct {
	Message string
}

func (e *AttachmentError) Error() string { return e.Message }

// NotFoundError means the referenced session does not exist or has expired.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }
