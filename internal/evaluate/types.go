// Package evaluate talks to the remote recognition service.
package evaluate

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse marks a reply that could not be turned into entries.
var ErrMalformedResponse = errors.New("malformed evaluation response")

// Entry is one recognised expression.
type Entry struct {
	Expression string
	Answer     string
	Assign     bool
}

// Request is the JSON body posted to the service.
type Request struct {
	Image     string            `json:"image"`
	Variables map[string]string `json:"dict_of_vars"`
}

// StatusError reports a non-2xx reply.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("evaluation service returned status %d", e.Code)
	}
	return fmt.Sprintf("evaluation service returned status %d: %s", e.Code, e.Message)
}

// Temporary reports whether retrying might succeed.
func (e *StatusError) Temporary() bool {
	return e.Code >= 500 || e.Code == 429
}
