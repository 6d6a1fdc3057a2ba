package startgg

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("remote entity not found")

type GraphQLErrorItem struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

// GraphQLError is a response that carried an errors array. The first message
// is surfaced to callers.
type GraphQLError struct {
	Errors []GraphQLErrorItem
}

func (e *GraphQLError) Error() string {
	if len(e.Errors) == 0 || e.Errors[0].Message == "" {
		return "graphql: unknown error"
	}
	return "graphql: " + e.Errors[0].Message
}

// HTTPError is a non-200 response from the endpoint.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
}
