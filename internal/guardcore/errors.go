package guardcore

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// Sentinel errors for errors.Is() checks against *APIError.
var (
	ErrUnauthorized = errors.New("guardcore: unauthorized")
	ErrForbidden    = errors.New("guardcore: forbidden")
	ErrNotFound     = errors.New("guardcore: not found")
	ErrValidation   = errors.New("guardcore: validation failed")
	ErrNetwork      = errors.New("guardcore: network error")
)

const (
	networkStatusText   = "Network Error"
	defaultErrorMessage = "Request failed"
	networkErrorMessage = "Network request failed"
)

// DetailKind tags the shape of an error body's detail.
type DetailKind int

const (
	// DetailNone means the response carried no usable body.
	DetailNone DetailKind = iota
	// DetailMessage is a plain string detail.
	DetailMessage
	// DetailValidation is a list of field-level validation errors.
	DetailValidation
	// DetailOpaque is a payload that matched neither known shape.
	DetailOpaque
)

func (k DetailKind) String() string {
	switch k {
	case DetailMessage:
		return "message"
	case DetailValidation:
		return "validation"
	case DetailOpaque:
		return "opaque"
	default:
		return "none"
	}
}

// ValidationError mirrors one entry of a validation error list.
type ValidationError struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// Field returns the last element of Loc, or "field" when Loc is empty.
func (v ValidationError) Field() string {
	if len(v.Loc) == 0 {
		return "field"
	}
	switch value := v.Loc[len(v.Loc)-1].(type) {
	case string:
		if value == "" {
			return "field"
		}
		return value
	case float64:
		return fmt.Sprintf("%d", int64(value))
	case nil:
		return "field"
	default:
		return fmt.Sprint(value)
	}
}

// String renders the entry as "field: message".
func (v ValidationError) String() string {
	return v.Field() + ": " + v.Msg
}

// ErrorDetail is the decoded error body. Raw holds the payload as received,
// or "{}" when the body was empty or not JSON.
type ErrorDetail struct {
	Kind        DetailKind
	Message     string
	Validations []ValidationError
	Raw         json.RawMessage
}

// Messages returns the msg of every validation entry.
func (d ErrorDetail) Messages() []string {
	out := make([]string, 0, len(d.Validations))
	for _, v := range d.Validations {
		out = append(out, v.Msg)
	}
	return out
}

// APIError is the single error shape returned for HTTP and network failures.
// Network failures carry Status 0.
type APIError struct {
	Status     int
	StatusText string
	Endpoint   string
	Method     string
	Message    string
	Detail     ErrorDetail
	RequestID  string
	Timestamp  time.Time
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %s: %s", e.Method, e.Endpoint, e.StatusText, e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Endpoint, e.Status, e.StatusText, e.Message)
}

// Is implements errors.Is for sentinel matching.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrValidation:
		return e.Status == http.StatusUnprocessableEntity || e.Detail.Kind == DetailValidation
	case ErrNetwork:
		return e.Status == 0
	}
	return false
}

// TimestampISO returns the creation time as an ISO 8601 string in UTC.
func (e *APIError) TimestampISO() string {
	return e.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// ToServiceError maps the error into a go-errors rich error.
func (e *APIError) ToServiceError() *goerrors.Error {
	category := categoryForStatus(e.Status)
	metadata := map[string]any{
		"endpoint": e.Endpoint,
		"method":   e.Method,
		"status":   e.Status,
	}
	if e.RequestID != "" {
		metadata["request_id"] = e.RequestID
	}

	var rich *goerrors.Error
	if e.Detail.Kind == DetailValidation {
		fields := make([]goerrors.FieldError, 0, len(e.Detail.Validations))
		for _, v := range e.Detail.Validations {
			fields = append(fields, goerrors.FieldError{Field: v.Field(), Message: v.Msg})
		}
		rich = goerrors.NewValidation(e.Message, fields...)
		category = goerrors.CategoryValidation
	} else {
		rich = goerrors.New(e.Message, category)
	}

	code := e.Status
	if code == 0 {
		code = http.StatusBadGateway
	}
	return rich.
		WithCode(code).
		WithTextCode(textCodeForCategory(category)).
		WithMetadata(metadata)
}

func categoryForStatus(status int) goerrors.Category {
	switch {
	case status == 0:
		return goerrors.CategoryExternal
	case status == http.StatusBadRequest:
		return goerrors.CategoryBadInput
	case status == http.StatusUnauthorized:
		return goerrors.CategoryAuth
	case status == http.StatusForbidden:
		return goerrors.CategoryAuthz
	case status == http.StatusNotFound:
		return goerrors.CategoryNotFound
	case status == http.StatusConflict:
		return goerrors.CategoryConflict
	case status == http.StatusUnprocessableEntity:
		return goerrors.CategoryValidation
	case status == http.StatusTooManyRequests:
		return goerrors.CategoryRateLimit
	case status >= 500:
		return goerrors.CategoryExternal
	default:
		return goerrors.CategoryInternal
	}
}

func textCodeForCategory(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return "BAD_INPUT"
	case goerrors.CategoryAuth:
		return "UNAUTHORIZED"
	case goerrors.CategoryAuthz:
		return "FORBIDDEN"
	case goerrors.CategoryNotFound:
		return "NOT_FOUND"
	case goerrors.CategoryConflict:
		return "CONFLICT"
	case goerrors.CategoryRateLimit:
		return "RATE_LIMITED"
	case goerrors.CategoryExternal:
		return "EXTERNAL_FAILURE"
	default:
		return "INTERNAL"
	}
}

// decodeErrorDetail decodes an error body defensively. Bodies that are not a
// JSON object are treated as an empty object.
func decodeErrorDetail(body []byte) ErrorDetail {
	detail := ErrorDetail{Kind: DetailNone, Raw: json.RawMessage("{}")}

	var envelope map[string]json.RawMessage
	if len(body) == 0 || json.Unmarshal(body, &envelope) != nil {
		return detail
	}
	detail.Raw = append(json.RawMessage(nil), body...)

	field, ok := envelope["detail"]
	if !ok {
		if len(envelope) > 0 {
			detail.Kind = DetailOpaque
		}
		return detail
	}

	var message string
	if err := json.Unmarshal(field, &message); err == nil {
		detail.Kind = DetailMessage
		detail.Message = message
		return detail
	}

	var validations []ValidationError
	if err := json.Unmarshal(field, &validations); err == nil {
		detail.Kind = DetailValidation
		detail.Validations = validations
		return detail
	}

	detail.Kind = DetailOpaque
	return detail
}

func messageFromDetail(detail ErrorDetail) string {
	switch detail.Kind {
	case DetailMessage:
		if strings.TrimSpace(detail.Message) != "" {
			return detail.Message
		}
	case DetailValidation:
		if flat := ParseValidationErrors(detail.Validations); len(flat) > 0 {
			return strings.Join(flat, ", ")
		}
	}
	return defaultErrorMessage
}

// ParseValidationErrors flattens validation entries into "field: message" lines.
func ParseValidationErrors(detail []ValidationError) []string {
	out := make([]string, 0, len(detail))
	for _, v := range detail {
		out = append(out, v.String())
	}
	return out
}

func newHTTPError(status int, endpoint, method, requestID string, body []byte, now time.Time) *APIError {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	statusText := http.StatusText(status)
	if statusText == "" {
		statusText = "Unknown Error"
	}
	detail := decodeErrorDetail(body)
	return &APIError{
		Status:     status,
		StatusText: statusText,
		Endpoint:   endpoint,
		Method:     method,
		Message:    messageFromDetail(detail),
		Detail:     detail,
		RequestID:  requestID,
		Timestamp:  now,
	}
}

func newNetworkError(cause error, endpoint, method, requestID string, now time.Time) *APIError {
	message := networkErrorMessage
	if cause != nil && cause.Error() != "" {
		message = cause.Error()
	}
	raw, _ := json.Marshal(message)
	return &APIError{
		Status:     0,
		StatusText: networkStatusText,
		Endpoint:   endpoint,
		Method:     method,
		Message:    message,
		Detail:     ErrorDetail{Kind: DetailOpaque, Message: message, Raw: raw},
		RequestID:  requestID,
		Timestamp:  now,
	}
}
