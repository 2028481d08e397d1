package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"studyhub/internal/domain"
)

// APIError is a non-2xx response from the backend API.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: backend responded %d: %s", e.Method, e.Path, e.StatusCode, e.Detail())
}

// maxDetailRunes caps how much of an unstructured error body is shown to the user.
const maxDetailRunes = 200

// Detail extracts a human-readable message from a DRF-style error body.
func (e *APIError) Detail() string {
	var body struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(e.Body, &body); err == nil {
		for _, s := range []string{body.Detail, body.Message, body.Error} {
			if s != "" {
				return s
			}
		}
	}
	text := strings.TrimSpace(string(e.Body))
	if runes := []rune(text); len(runes) > maxDetailRunes {
		text = string(runes[:maxDetailRunes]) + "..."
	}
	if text == "" {
		return http.StatusText(e.StatusCode)
	}
	return text
}

// toDomainError classifies a backend failure. 5xx responses get a generic message;
// 4xx responses keep the backend's detail for the user.
func toDomainError(apiErr *APIError) *domain.DomainError {
	if apiErr.StatusCode >= 500 {
		return domain.NewError(domain.CodeUpstream, "The learning platform is unavailable. Please try again later.", apiErr).
			WithContext("status", apiErr.StatusCode)
	}
	if apiErr.StatusCode == http.StatusNotFound {
		return domain.NewError(domain.CodeNotFound, "The requested item was not found.", apiErr)
	}
	return domain.NewError(domain.CodeBackendRejected, apiErr.Detail(), apiErr).
		WithContext("status", apiErr.StatusCode)
}

func networkError(method, path string, err error) *domain.DomainError {
	return domain.NewError(domain.CodeNetwork, "Could not reach the learning platform.",
		fmt.Errorf("%s %s: %w", method, path, err))
}
