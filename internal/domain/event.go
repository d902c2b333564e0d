package domain

import "time"

// Event registra un evento de analitica (signup, login, chat_request, etc).
// UserID queda vacio cuando el evento es anonimo.
type Event struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id,omitempty"`
	EventType string         `json:"event_type"`
	EventData map[string]any `json:"event_data,omitempty"`
	IPAddress string         `json:"ip_address,omitempty"`
	UserAgent string         `json:"user_agent,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
