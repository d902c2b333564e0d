package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"ai-garden/internal/search"
)

const webSearchResultCount = 3

// Avisos fijos que reemplazan al bloque de resultados cuando la busqueda no
// aporta nada. El flujo de chat nunca falla solo porque fallo la busqueda.
const (
	noticeNoResults    = "No relevant web results were found for this query."
	noticeSearchFailed = "Web search failed; proceeding without results."
)

const searchInstructions = `Instructions: Answer the question using ONLY the web search results above. Cite sources inline with bracketed numbers like [1]. End the answer with a "Sources:" section listing the URLs you cited.`

// SearchAugmenter reescribe el texto del ultimo mensaje del usuario con
// contexto de busqueda web antes de despachar al proveedor.
type SearchAugmenter struct {
	logger *zap.Logger
	search search.Client
}

func NewSearchAugmenter(logger *zap.Logger, client search.Client) *SearchAugmenter {
	return &SearchAugmenter{
		logger: logger,
		search: client,
	}
}

// Augment devuelve el texto de reemplazo para query: bloque de resultados (o
// aviso fijo), instrucciones y la consulta original textual. No es
// idempotente: el indice de busqueda cambia entre llamadas y eso es aceptado.
func (a *SearchAugmenter) Augment(ctx context.Context, query string) string {
	var block string
	results, err := a.search.Search(ctx, query, webSearchResultCount)
	switch {
	case err != nil:
		if a.logger != nil {
			a.logger.Warn("web search failed", zap.Error(err))
		}
		block = noticeSearchFailed
	case len(results) == 0:
		block = noticeNoResults
	default:
		block = formatSearchResults(results)
	}
	return block + "\n\n" + searchInstructions + "\n\nQuestion: " + query
}

func formatSearchResults(results []search.Result) string {
	var sb strings.Builder
	sb.WriteString("Web search results:\n\n")
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s\n   Snippet: %s\n   URL: %s\n", i+1, r.Title, flattenSnippet(r.Snippet), r.URL)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// flattenSnippet aplana saltos de linea dentro del snippet a espacios.
func flattenSnippet(snippet string) string {
	snippet = strings.ReplaceAll(snippet, "\r\n", " ")
	snippet = strings.ReplaceAll(snippet, "\n", " ")
	return strings.ReplaceAll(snippet, "\r", " ")
}
