package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ai-garden/internal/domain"
	"ai-garden/internal/llm"
	"ai-garden/internal/service"
)

type stubModelStreamer struct {
	deltas []string
	err    error
	calls  int
}

func (s *stubModelStreamer) Stream(_ context.Context, _ string, _ []domain.ChatMessage) (llm.Stream, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return llm.NewStaticStream(s.deltas...), nil
}

func setupChatRouter(models service.ModelStreamer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	chatServ := service.NewChatService(logger, models, nil, nil)
	h := NewChatHandler(logger, chatServ)

	r := gin.New()
	r.POST("/api/chat", h.Chat)
	return r
}

func postChat(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestChatHandler_StreamsNormalizedLines(t *testing.T) {
	r := setupChatRouter(&stubModelStreamer{deltas: []string{"Hi", " there"}})

	rec := postChat(r, `{"model":"gpt-4o","messages":[{"role":"user","content":"hola"}]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream; charset=utf-8" {
		t.Errorf("unexpected content type: %q", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("unexpected cache control: %q", cc)
	}

	want := "0:\"Hi\"\n0:\" there\"\n"
	if got := rec.Body.String(); got != want {
		t.Fatalf("unexpected body:\ngot  %q\nwant %q", got, want)
	}
}

func TestChatHandler_EscapesDeltaAsJSONString(t *testing.T) {
	r := setupChatRouter(&stubModelStreamer{deltas: []string{"line\nbreak \"quoted\""}})

	rec := postChat(r, `{"model":"gpt-4o","messages":[{"role":"user","content":"hola"}]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	encoded, _ := json.Marshal("line\nbreak \"quoted\"")
	want := fmt.Sprintf("0:%s\n", encoded)
	if got := rec.Body.String(); got != want {
		t.Fatalf("unexpected body:\ngot  %q\nwant %q", got, want)
	}
}

func TestChatHandler_SuppressesEmptyDeltas(t *testing.T) {
	r := setupChatRouter(&stubModelStreamer{deltas: []string{"", "a", ""}})

	rec := postChat(r, `{"model":"gpt-4o","messages":[{"role":"user","content":"hola"}]}`)

	if got := rec.Body.String(); got != "0:\"a\"\n" {
		t.Fatalf("unexpected body: %q", got)
	}
}

func TestChatHandler_InvalidJSONBody(t *testing.T) {
	stub := &stubModelStreamer{}
	r := setupChatRouter(stub)

	rec := postChat(r, `{not json`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if stub.calls != 0 {
		t.Fatalf("no dispatch expected, got %d", stub.calls)
	}
}

func TestChatHandler_MissingInput(t *testing.T) {
	stub := &stubModelStreamer{}
	r := setupChatRouter(stub)

	rec := postChat(r, `{"model":"gpt-4o","messages":[]}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "missing messages or model") {
		t.Fatalf("unexpected error body: %s", rec.Body.String())
	}
	if stub.calls != 0 {
		t.Fatalf("no dispatch expected, got %d", stub.calls)
	}
}

func TestChatHandler_UnsupportedModel(t *testing.T) {
	r := setupChatRouter(&stubModelStreamer{err: fmt.Errorf("%w: gpt-raro", llm.ErrUnsupportedModel)})

	rec := postChat(r, `{"model":"gpt-raro","messages":[{"role":"user","content":"hola"}]}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "gpt-raro") {
		t.Fatalf("error should name the model: %s", rec.Body.String())
	}
}

func TestChatHandler_ErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"prompt structure", llm.ErrPromptStructure, http.StatusBadRequest},
		{"model not found upstream", llm.ErrModelNotFound, http.StatusNotFound},
		{"provider rate limited", llm.ErrRateLimited, http.StatusTooManyRequests},
		{"provider auth", llm.ErrAuthentication, http.StatusInternalServerError},
		{"provider error keeps status", &llm.ProviderError{Status: 502, Message: "bad gateway"}, http.StatusBadGateway},
		{"provider error odd status clamped", &llm.ProviderError{Status: 200, Message: "odd"}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := setupChatRouter(&stubModelStreamer{err: tc.err})
			rec := postChat(r, `{"model":"gpt-4o","messages":[{"role":"user","content":"hola"}]}`)
			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tc.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestChatHandler_NotConfiguredIsSanitized(t *testing.T) {
	err := fmt.Errorf("%w: model gpt-4o key=sk-se...cret", llm.ErrNotConfigured)
	r := setupChatRouter(&stubModelStreamer{err: err})

	rec := postChat(r, `{"model":"gpt-4o","messages":[{"role":"user","content":"hola"}]}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "configuration error") {
		t.Fatalf("expected sanitized message, got %s", body)
	}
	if strings.Contains(body, "sk-se") {
		t.Fatalf("key material leaked to client: %s", body)
	}
}
