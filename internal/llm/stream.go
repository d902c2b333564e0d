package llm

import (
	"context"
	"io"

	"ai-garden/internal/domain"
)

// Stream es una secuencia perezosa de deltas de texto producida por un
// proveedor. Recv devuelve io.EOF al agotarse; Close libera la conexion
// upstream y es seguro llamarlo mas de una vez. Un Stream no es reiniciable:
// cada llamada a StreamChat abre un request nuevo.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// Streamer abre una conversacion en streaming contra un proveedor concreto.
type Streamer interface {
	StreamChat(ctx context.Context, model ModelConfig, messages []domain.ChatMessage) (Stream, error)
}

// StaticStream entrega deltas fijos en orden; util para tests.
type StaticStream struct {
	deltas []string
	Closed bool
}

func NewStaticStream(deltas ...string) *StaticStream {
	return &StaticStream{deltas: deltas}
}

func (s *StaticStream) Recv() (string, error) {
	if len(s.deltas) == 0 {
		return "", io.EOF
	}
	delta := s.deltas[0]
	s.deltas = s.deltas[1:]
	return delta, nil
}

func (s *StaticStream) Close() error {
	s.Closed = true
	return nil
}
