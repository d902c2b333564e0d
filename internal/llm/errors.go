package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUnsupportedModel = errors.New("model not supported")
	ErrNotConfigured    = errors.New("api key not configured")
	ErrModelNotFound    = errors.New("model not found")
	ErrAuthentication   = errors.New("authentication failed")
	ErrRateLimited      = errors.New("rate limited")
	ErrPromptStructure  = errors.New("final message must be from the user")
)

// ProviderError conserva el status y el mensaje del proveedor upstream
// cuando el fallo no encaja en la taxonomia anterior.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error: status=%d message=%s", e.Status, e.Message)
}

// MaskAPIKey devuelve una forma enmascarada de la credencial apta para logs:
// primeros 5 y ultimos 4 caracteres. Nunca se loguea la clave completa.
func MaskAPIKey(key string) string {
	if key == "" {
		return "undefined"
	}
	if len(key) < 9 {
		return "..."
	}
	return key[:5] + "..." + key[len(key)-4:]
}

// classifyUpstreamError traduce un fallo HTTP del proveedor a la taxonomia
// local. El mensaje de autenticacion solo incluye la clave enmascarada.
func classifyUpstreamError(status int, body, apiKey string) error {
	switch {
	case status == http.StatusNotFound || strings.Contains(strings.ToLower(body), "model not found"):
		return fmt.Errorf("%w: %s", ErrModelNotFound, truncateBody(body, 200))
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: status=%d key=%s", ErrAuthentication, status, MaskAPIKey(apiKey))
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status=%d", ErrRateLimited, status)
	default:
		return &ProviderError{Status: status, Message: truncateBody(body, 500)}
	}
}

func truncateBody(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) > max {
		return body[:max]
	}
	return body
}
