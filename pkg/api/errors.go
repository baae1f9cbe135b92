package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/skiff-run/skiff/pkg/errors"
)

// Error is the structured error returned by the Skiff API server.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`

	// Status is the HTTP status of the response the error was decoded from.
	Status int `json:"-"`
}

func (err Error) Error() string {
	if err.Code != "" {
		return fmt.Sprintf("%s (%s)", err.Message, err.Code)
	}
	return err.Message
}

// The Skiff API isn't consistent about how it reports error conditions.
// Depending on the endpoint (and on whatever is proxying it), the same
// condition may surface as a structured error code, a bare HTTP status, or
// just a message. The classifiers below are the only place that knows these
// heuristics. Call sites must use them rather than inspecting codes directly.

// IsNotFound returns whether the error indicates that the requested entity
// doesn't exist.
func IsNotFound(err error) bool {
	return classify(err, classification{
		codes:      []string{"subject_does_not_exist", "entity_not_found"},
		status:     http.StatusNotFound,
		substrings: []string{"not found", "does not exist"},
	})
}

// IsAlreadyExists returns whether the error indicates that an entity with the
// same identity already exists.
func IsAlreadyExists(err error) bool {
	return classify(err, classification{
		codes:      []string{"item_with_same_name_exists", "subdomain_taken"},
		status:     http.StatusConflict,
		substrings: []string{"already exists", "already in use"},
	})
}

// IsUnauthorized returns whether the error indicates that the auth token was
// rejected.
func IsUnauthorized(err error) bool {
	return classify(err, classification{
		codes:      []string{"invalid_token"},
		status:     http.StatusUnauthorized,
		substrings: []string{"unauthorized", "invalid token"},
	})
}

type classification struct {
	codes      []string
	status     int
	substrings []string
}

func classify(err error, c classification) bool {
	if err == nil {
		return false
	}
	cause := errors.RootCause(err)

	if apiErr, ok := cause.(Error); ok {
		for _, code := range c.codes {
			if apiErr.Code == code {
				return true
			}
		}
		if apiErr.Status == c.status {
			return true
		}
	}

	msg := strings.ToLower(cause.Error())
	for _, substring := range c.substrings {
		if strings.Contains(msg, substring) {
			return true
		}
	}
	return false
}
