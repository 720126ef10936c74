package remote

import (
	"errors"
	"fmt"
)

// ErrNoConnection is matched by every *ConnectionError.
var ErrNoConnection = errors.New("no connection")

// ResponseError is an HTTP response with a non-2xx status.
// Redirects are reported this way too, since they are never followed.
type ResponseError struct {
	Method     string
	URL        string
	StatusCode int
	Location   string
	Body       string
}

func (e *ResponseError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("%s %s: status %d (redirect to %s)", e.Method, e.URL, e.StatusCode, e.Location)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// ConnectionError reports that no connection could be resolved for a model.
type ConnectionError struct {
	Model string
	Name  string
}

func (e *ConnectionError) Error() string {
	target := e.Model
	if target == "" {
		target = "model"
	}
	if e.Name != "" {
		return fmt.Sprintf("no connection %q associated with %s: have you connected to a data source?", e.Name, target)
	}
	return fmt.Sprintf("no connection associated with %s: have you connected to a data source?", target)
}

// Is makes errors.Is(err, ErrNoConnection) true.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrNoConnection
}

// IsNotFound returns true if err is a 404 response.
func IsNotFound(err error) bool {
	return hasStatus(err, 404)
}

// IsRedirect returns true if err is a 3xx response.
func IsRedirect(err error) bool {
	var re *ResponseError
	return errors.As(err, &re) && re.StatusCode >= 300 && re.StatusCode < 400
}

func hasStatus(err error, code int) bool {
	var re *ResponseError
	return errors.As(err, &re) && re.StatusCode == code
}
