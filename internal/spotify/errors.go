package spotify

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// APIError is a non-success response from the Web API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("spotify: status %d", e.Status)
	}
	return fmt.Sprintf("spotify: status %d: %s", e.Status, e.Message)
}

// Is matches APIErrors by status so errors.Is can test for specific codes.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.Status == t.Status
}

func parseAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return apiErr
	}
	// The Web API nests an object under "error"; the accounts token endpoint
	// returns the OAuth shape, where "error" is a bare string and the detail
	// lives in "error_description".
	var payload struct {
		Error            json.RawMessage `json:"error"`
		ErrorDescription string          `json:"error_description"`
	}
	if json.Unmarshal(body, &payload) == nil {
		var nested struct {
			Message string `json:"message"`
		}
		if len(payload.Error) > 0 && json.Unmarshal(payload.Error, &nested) == nil && nested.Message != "" {
			apiErr.Message = nested.Message
		} else if payload.ErrorDescription != "" {
			apiErr.Message = payload.ErrorDescription
		}
	}
	return apiErr
}
