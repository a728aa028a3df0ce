package pinecone

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrorBody is the structured error schema returned by the service.
// Details are opaque key/value maps.
type ErrorBody struct {
	Code    int           `json:"code"    yaml:"code"`
	Message string        `json:"message" yaml:"message"`
	Details []MappedValue `json:"details" yaml:"details"`
}

// Error implements the error interface.
func (e *ErrorBody) Error() string {
	return fmt.Sprintf("%s (code: %d)", e.Message, e.Code)
}

// ParseErrorBody parses a structured error body. A body that is valid JSON but
// carries neither a code nor a message is not considered an error body.
func ParseErrorBody(data []byte) (*ErrorBody, error) {
	var body ErrorBody

	err := json.Unmarshal(data, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal error body: %w", err)
	}

	if body.Code == 0 && body.Message == "" {
		return nil, ErrNotAnErrorBody
	}

	return &body, nil
}

// ArgumentError reports an invalid or missing argument. It is returned before
// any network call is attempted.
type ArgumentError struct {
	Name     string
	Found    string
	Expected string
}

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s: found %s, expected %s", e.Name, e.Found, e.Expected)
}

// TransportError wraps a network, TLS or connection failure. No response was received.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: transport failure: %v", e.Method, e.URL, e.Err)
}

// Unwrap returns the underlying failure.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError reports a response body that could not be decoded. On the
// success status it means a schema mismatch between client and service; on
// other statuses it means the error body itself was unreadable. Body holds the
// raw response text.
type DecodeError struct {
	StatusCode int
	Body       string
	Err        error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding response with status %d: %v", e.StatusCode, e.Err)
}

// Unwrap returns the underlying decode failure.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ServiceError is a non-success response reported by the service. Body is set
// when the structured error schema could be parsed. Raw holds the response text
// for text calls whose error body is not the schema.
type ServiceError struct {
	StatusCode int
	Body       *ErrorBody
	Raw        string
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Body != nil {
		return fmt.Sprintf("service returned %d: %s", e.StatusCode, e.Body.Error())
	}

	if e.Raw == "" {
		return fmt.Sprintf("service returned %d", e.StatusCode)
	}

	return fmt.Sprintf("service returned %d: %s", e.StatusCode, e.Raw)
}

// Structured reports whether the error body was parsed.
func (e *ServiceError) Structured() bool {
	return e.Body != nil
}

// UnsupportedMethodError is an internal error for a verb the dispatcher does
// not handle. Seeing it indicates a bug in the client.
type UnsupportedMethodError struct {
	Method string
}

// Error implements the error interface.
func (e *UnsupportedMethodError) Error() string {
	return "unsupported method: " + e.Method
}

// VectorDimensionError reports a vector whose length differs from the index dimension.
type VectorDimensionError struct {
	ID       string
	Found    int
	Expected int
}

// Error implements the error interface.
func (e *VectorDimensionError) Error() string {
	return fmt.Sprintf("vector %q has dimension %d, expected %d", e.ID, e.Found, e.Expected)
}

// Static errors for err113 compliance.
var (
	ErrResourceURLUnavailable = errors.New("index host is not available")
	ErrNotAnErrorBody         = errors.New("body does not match the error schema")
	ErrInvalidMetric          = errors.New("invalid metric")
	ErrConfigRequired         = errors.New("config is required")
	ErrAPIKeyRequired         = errors.New("API key is required")
	ErrEnvironmentRequired    = errors.New("environment is required")
	ErrIndexNameRequired      = errors.New("index name is required")
	ErrCacheKeyNotFound       = errors.New("key not found")
	ErrCacheEntryExpired      = errors.New("entry expired")
)

// StatusCode returns the HTTP status carried by err, or 0 when none was received.
func StatusCode(err error) int {
	svcErr := &ServiceError{}
	if errors.As(err, &svcErr) {
		return svcErr.StatusCode
	}

	decErr := &DecodeError{}
	if errors.As(err, &decErr) {
		return decErr.StatusCode
	}

	return 0
}

// IsNotFound checks if the service reported a missing resource.
func IsNotFound(err error) bool {
	return isServiceStatus(err, http.StatusNotFound)
}

// IsConflict checks if the service reported that the resource already exists.
func IsConflict(err error) bool {
	return isServiceStatus(err, http.StatusConflict)
}

// IsUnauthorized checks if the service rejected the API key.
func IsUnauthorized(err error) bool {
	return isServiceStatus(err, http.StatusUnauthorized)
}

// IsTransport checks if err is a transport failure.
func IsTransport(err error) bool {
	transportErr := &TransportError{}

	return errors.As(err, &transportErr)
}

// IsResourceURLUnavailable checks if an index host could not be established.
func IsResourceURLUnavailable(err error) bool {
	return errors.Is(err, ErrResourceURLUnavailable)
}

// isServiceStatus also matches a DecodeError for an unparseable error body.
func isServiceStatus(err error, status int) bool {
	return err != nil && StatusCode(err) == status
}
