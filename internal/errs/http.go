package errs

import "strings"

// FieldError represents a field-level validation error.
//
//	{ "field": "startdate", "error": "is required" }
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ActionType is a string-based enum describing what the client should do.
type ActionType string

const (
	// ActionTypeRedirect tells the client to navigate to Value.
	ActionTypeRedirect ActionType = "redirect"
)

// Action is an optional "what the client should do next" instruction,
// e.g. send an expired XHR session back to the login page.
type Action struct {
	Type    ActionType `json:"type"`
	Message string     `json:"message"`
	Value   string     `json:"value"`
}

// HTTPError is the main custom error type for HTTP responses.
//
// Fields:
//   - Code: machine-friendly error code (e.g. "BAD_REQUEST").
//   - Message: human-friendly message.
//   - Status: HTTP status code.
//   - Override: the message is safe to show verbatim.
//   - Errors: per-field validation errors.
//   - Action: client instruction (optional).
//   - Details: raw diagnostic text, e.g. the stderr of a failed command.
type HTTPError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Status   int    `json:"status"`
	Override bool   `json:"override"`

	Errors []FieldError `json:"errors"`

	Action *Action `json:"action"`

	Details string `json:"details,omitempty"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

// Is reports whether target is also an *HTTPError. It does not compare
// codes or statuses.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)
	return ok
}

// WithMessage returns a copy of this HTTPError with Message replaced.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	clone := *e
	clone.Message = message
	return &clone
}

// WithDetails returns a copy of this HTTPError carrying diagnostic details.
func (e *HTTPError) WithDetails(details string) *HTTPError {
	clone := *e
	clone.Details = details
	return &clone
}

// WithAction returns a copy of this HTTPError carrying a client action.
func (e *HTTPError) WithAction(action *Action) *HTTPError {
	clone := *e
	clone.Action = action
	return &clone
}

// MakeUpperCaseWithUnderscores converts "Bad Request" into "BAD_REQUEST".
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
