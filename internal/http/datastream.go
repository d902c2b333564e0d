package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"ai-garden/internal/llm"
)

// writeDataStream codifica cada delta del stream como una linea `0:<JSON>\n`
// (UTF-8) y la emite con flush inmediato. Conserva el orden de llegada, no
// agrupa deltas y suprime los vacios. Devuelve nil en cierre limpio (io.EOF)
// o el error del stream si este corta antes.
func writeDataStream(w http.ResponseWriter, stream llm.Stream) error {
	flusher, _ := w.(http.Flusher)
	for {
		delta, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if delta == "" {
			continue
		}

		encoded, err := json.Marshal(delta)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "0:%s\n", encoded); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}
