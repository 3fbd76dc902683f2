package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"foreclosure-voice/internal/conversation"
)

func completion(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   DefaultModel,
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	}
}

func newTestClient(t *testing.T, h http.HandlerFunc, timeout time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1", Timeout: timeout})
}

var turnOne = []conversation.Message{{Role: conversation.RoleUser, Content: "I missed three mortgage payments"}}

func TestReply_Success(t *testing.T) {
	var got openai.ChatCompletionRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing bearer token")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion("  I'm sorry you're going through that. Have you received a notice?  "))
	}, time.Second)

	reply, err := c.Reply(context.Background(), turnOne)
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if reply.Fallback {
		t.Fatal("expected a model reply, got fallback")
	}
	if reply.Text != "I'm sorry you're going through that. Have you received a notice?" {
		t.Fatalf("reply not trimmed: %q", reply.Text)
	}
	if reply.Model != DefaultModel {
		t.Fatalf("model = %q", reply.Model)
	}

	if got.Model != DefaultModel || got.MaxTokens != DefaultMaxTokens {
		t.Fatalf("unexpected request model/max_tokens: %s %d", got.Model, got.MaxTokens)
	}
	if got.Temperature != 0.7 || got.TopP != 1 || got.FrequencyPenalty != 0.3 || got.PresencePenalty != 0.3 {
		t.Fatalf("unexpected sampling params: %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != turnOne[0].Content {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
}

func TestReply_FallbackOnErrorStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}, time.Second)

	reply, err := c.Reply(context.Background(), turnOne)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !reply.Fallback || reply.Text != FallbackUtterance {
		t.Fatalf("expected fallback, got %+v", reply)
	}
}

func TestReply_FallbackOnUnparseableErrorBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("bad gateway"))
	}, time.Second)

	reply, err := c.Reply(context.Background(), turnOne)
	if err != nil || !reply.Fallback {
		t.Fatalf("expected fallback, got %+v %v", reply, err)
	}
}

func TestReply_FallbackOnEmptyContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion("   "))
	}, time.Second)

	reply, err := c.Reply(context.Background(), turnOne)
	if err != nil || !reply.Fallback || reply.Text == "" {
		t.Fatalf("expected non-empty fallback, got %+v %v", reply, err)
	}
}

func TestReply_FallbackWithoutCredentials(t *testing.T) {
	reply, err := NewClient(Config{}).Reply(context.Background(), turnOne)
	if err != nil || !reply.Fallback || reply.Text != FallbackUtterance {
		t.Fatalf("expected fallback, got %+v %v", reply, err)
	}
}

func TestReply_TimeoutIsUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, 50*time.Millisecond)

	_, err := c.Reply(context.Background(), turnOne)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestReply_ConnectionRefusedIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(Config{APIKey: "sk-test", BaseURL: url + "/v1", Timeout: time.Second})
	_, err := c.Reply(context.Background(), turnOne)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestBuildPrompt_Window(t *testing.T) {
	var h []conversation.Message
	for i := 0; i < 10; i++ {
		h = append(h,
			conversation.Message{Role: conversation.RoleUser, Content: "question " + string(rune('a'+i))},
			conversation.Message{Role: conversation.RoleAssistant, Content: "answer"},
		)
	}
	h = append(h, conversation.Message{Role: conversation.RoleUser, Content: "latest"})

	p := buildPrompt(h, 4)
	// system prompt, summary, then 4 newest messages
	if len(p) != 6 {
		t.Fatalf("expected 6 prompt messages, got %d", len(p))
	}
	if p[0].Content != SystemPrompt {
		t.Fatal("system prompt must come first")
	}
	if p[1].Role != "system" || !strings.HasPrefix(p[1].Content, "Earlier in this call the caller said: question a") {
		t.Fatalf("unexpected summary: %+v", p[1])
	}
	if strings.Contains(p[1].Content, "answer") {
		t.Fatal("summary must only carry caller utterances")
	}
	if p[5].Content != "latest" {
		t.Fatalf("newest message must be last, got %+v", p[5])
	}

	if all := buildPrompt(h, 0); len(all) != len(h)+1 {
		t.Fatalf("window 0 should send everything, got %d", len(all))
	}
	if short := buildPrompt(turnOne, 16); len(short) != 2 {
		t.Fatalf("short history should not be summarized, got %d", len(short))
	}
}
