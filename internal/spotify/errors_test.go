package spotify

import (
	"io"
	"net/http"
	"strings"
	"testing"
)

func apiResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestParseAPIErrorWebAPIShape(t *testing.T) {
	err := parseAPIError(apiResponse(http.StatusNotFound, `{"error":{"status":404,"message":"Device not found"}}`))
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Message != "Device not found" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestParseAPIErrorOAuthShape(t *testing.T) {
	// Token endpoint errors carry a bare string under "error".
	err := parseAPIError(apiResponse(http.StatusBadRequest, `{"error":"invalid_grant","error_description":"Invalid authorization code"}`))
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Message != "Invalid authorization code" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestParseAPIErrorUnparseableBody(t *testing.T) {
	err := parseAPIError(apiResponse(http.StatusBadGateway, "<html>bad gateway</html>"))
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Status != http.StatusBadGateway || apiErr.Message != "" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
	if got := apiErr.Error(); got != "spotify: status 502" {
		t.Fatalf("Error() = %q", got)
	}
}
