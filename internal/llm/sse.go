package llm

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"
)

// lineDecoder corta un flujo de bytes en lineas completas. El fragmento final
// sin salto de linea se conserva entre lecturas, de modo que una linea
// partida en dos reads se reconstruye igual que si llegara entera.
type lineDecoder struct {
	buf []byte
}

func (d *lineDecoder) push(p []byte) []string {
	d.buf = append(d.buf, p...)
	var lines []string
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			return lines
		}
		lines = append(lines, string(d.buf[:i]))
		d.buf = d.buf[i+1:]
	}
}

// sseStream implementa Stream sobre un body HTTP con formato SSE. Cada linea
// "data: {...}" se convierte en cero o un delta via extract; el centinela
// [DONE] se ignora sin cortar el resto del buffer, y un JSON malformado en
// una linea se loguea y se salta sin abortar el stream.
type sseStream struct {
	body    io.ReadCloser
	logger  *zap.Logger
	extract func(payload []byte) (string, error)
	dec     lineDecoder
	chunk   []byte
	pending []string
	done    bool
	closed  bool
}

func newSSEStream(body io.ReadCloser, logger *zap.Logger, extract func([]byte) (string, error)) *sseStream {
	return &sseStream{
		body:    body,
		logger:  logger,
		extract: extract,
		chunk:   make([]byte, 4096),
	}
}

func (s *sseStream) Recv() (string, error) {
	for {
		if len(s.pending) > 0 {
			delta := s.pending[0]
			s.pending = s.pending[1:]
			return delta, nil
		}
		if s.done {
			return "", io.EOF
		}

		n, err := s.body.Read(s.chunk)
		if n > 0 {
			s.consume(s.chunk[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.done = true
				continue
			}
			return "", err
		}
	}
}

func (s *sseStream) consume(p []byte) {
	for _, line := range s.dec.push(p) {
		line = strings.TrimRight(line, "\r")
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimSpace(line[len("data: "):])
		if payload == "" || payload == "[DONE]" {
			continue
		}
		delta, err := s.extract([]byte(payload))
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("skipping malformed stream chunk", zap.Error(err))
			}
			continue
		}
		if delta == "" {
			continue
		}
		s.pending = append(s.pending, delta)
	}
}

func (s *sseStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}
