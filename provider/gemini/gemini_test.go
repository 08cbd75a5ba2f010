package gemini

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestAnswerReturnsFirstCandidateText(t *testing.T) {
	var gotPath, gotKey, gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Contents) == 1 && len(req.Contents[0].Parts) == 1 {
			gotPrompt = req.Contents[0].Parts[0].Text
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"first"},{"text":"second"}]}},{"content":{"parts":[{"text":"other"}]}}]}`))
	}))
	defer srv.Close()

	c := NewClient("k3y", srv.URL+"/", "gemini-2.0-flash", time.Second)
	answer, err := c.Answer(t.Context(), "What happened?", "Storm: heavy rain")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if answer != "first" {
		t.Fatalf("expected first candidate text, got %q", answer)
	}
	if gotPath != "/v1beta/models/gemini-2.0-flash:generateContent" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotKey != "k3y" {
		t.Fatalf("unexpected key %q", gotKey)
	}
	if !strings.Contains(gotPrompt, "Storm: heavy rain") || !strings.Contains(gotPrompt, `"What happened?"`) {
		t.Fatalf("prompt missing context or question: %s", gotPrompt)
	}
}

func TestAnswerFailsOnNonSuccessStatus(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("k", srv.URL, "m", time.Second)
	if _, err := c.Answer(t.Context(), "q", "c"); err == nil {
		t.Fatalf("expected error on 429")
	}
	if calls != 1 {
		t.Fatalf("expected no retry, got %d calls", calls)
	}
}

func TestAnswerRejectsUnexpectedShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := NewClient("k", srv.URL, "m", time.Second)
	_, err := c.Answer(t.Context(), "q", "c")
	if !errors.Is(err, ErrUnexpectedResponse) {
		t.Fatalf("expected ErrUnexpectedResponse, got %v", err)
	}
}

func TestBuildPromptWithEmptyContext(t *testing.T) {
	prompt := BuildPrompt("Who won?", "")
	if !strings.Contains(prompt, NotFoundAnswer) {
		t.Fatalf("prompt must carry the fallback sentence: %s", prompt)
	}
	if !strings.Contains(prompt, "---\n\n---") {
		t.Fatalf("empty context should still render the fenced block: %s", prompt)
	}
}
