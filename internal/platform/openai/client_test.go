package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/conscious-backend/internal/platform/logger"
)

func TestParseThoughts(t *testing.T) {
	cases := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{`{"thoughts":["a"," b ",""]}`, []string{"a", "b"}, false},
		{"```json\n{\"thoughts\":[\"x\"]}\n```", []string{"x"}, false},
		{`{"thoughts":[]}`, []string{}, false},
		{`not json`, nil, true},
	}
	for _, tc := range cases {
		got, err := ParseThoughts(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseThoughts(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil || len(got) != len(tc.want) {
			t.Fatalf("ParseThoughts(%q)=%v err=%v", tc.in, got, err)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("ParseThoughts(%q)[%d]=%q", tc.in, i, got[i])
			}
		}
	}
}

func TestBackoffBounds(t *testing.T) {
	if Backoff(time.Second, 0) != 0 {
		t.Fatalf("attempt 0 should not wait")
	}
	for attempt := 1; attempt < 40; attempt++ {
		d := Backoff(time.Second, attempt)
		if d <= 0 || d > 38*time.Second {
			t.Fatalf("attempt %d backoff=%v", attempt, d)
		}
	}
}

func TestEmbedOrdersByIndexAndRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			http.NotFound(w, r)
			return
		}
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"busy","type":"server_error"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  "m",
			"data": []map[string]any{
				{"object": "embedding", "index": 1, "embedding": []float32{0, 1}},
				{"object": "embedding", "index": 0, "embedding": []float32{1, 0}},
			},
		})
	}))
	defer srv.Close()

	c, err := NewClient(Config{APIKey: "k", BaseURL: srv.URL, EmbedModel: "m", MaxRetries: 1, RetryDelay: time.Millisecond}, logger.Nop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	out, err := c.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls=%d want 2", calls.Load())
	}
	if len(out) != 2 || out[0][0] != 1 || out[1][1] != 1 {
		t.Fatalf("out=%v", out)
	}
}

func TestExtractThoughtsUsesCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "c", "object": "chat.completion", "model": "m",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": `{"thoughts":["one","two"]}`},
			}},
		})
	}))
	defer srv.Close()

	c, err := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, logger.Nop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	got, err := c.ExtractThoughts(context.Background(), "text")
	if err != nil || len(got) != 2 || got[1] != "two" {
		t.Fatalf("ExtractThoughts=%v err=%v", got, err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(Config{}, logger.Nop()); err == nil {
		t.Fatalf("expected error")
	}
}
