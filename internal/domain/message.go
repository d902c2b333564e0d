package domain

// Roles validos para mensajes de chat.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ChatMessage es un turno de la conversacion tal como lo envia el cliente.
// La secuencia ordenada forma la conversacion; el ultimo mensaje de rol
// "user" es el turno activo.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
