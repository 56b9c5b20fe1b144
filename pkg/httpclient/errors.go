package httpclient

import (
	"fmt"
	"io"
	"net/http"
)

// StatusError represents a non-success HTTP response from an upstream service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Body)
}

// NewStatusError builds a StatusError from a response, reading at most 4KB
// of the body. It does not close the body.
func NewStatusError(resp *http.Response) *StatusError {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		body = []byte{}
	}
	return &StatusError{
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
}
