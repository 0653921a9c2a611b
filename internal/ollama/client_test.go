package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChat_SendsOptionsAndReturnsContent(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q, want /api/chat", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(chatResponse{Message: Message{Role: "assistant", Content: `{"standardized_program":"Computer Science PhD"}`}})
	}))
	defer srv.Close()

	c := New(srv.URL)
	out, err := c.Chat(context.Background(), "tinyllama", []Message{{Role: "user", Content: "hi"}}, &Options{Temperature: 0, TopP: 1, NumPredict: 64})
	if err != nil {
		t.Fatalf("Chat error: %v", err)
	}
	if out != `{"standardized_program":"Computer Science PhD"}` {
		t.Errorf("Chat content = %q", out)
	}
	if got.Model != "tinyllama" || got.Stream {
		t.Errorf("request = %+v, want model tinyllama, stream false", got)
	}
	if got.Options == nil || got.Options.Temperature != 0 || got.Options.TopP != 1 || got.Options.NumPredict != 64 {
		t.Errorf("options = %+v, want deterministic sampling", got.Options)
	}
}

func TestChat_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.Chat(context.Background(), "tinyllama", nil, nil); err == nil {
		t.Fatal("Chat should fail on 500")
	}
}

func TestHasModel_MatchesTagSuffix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(tagsResponse{Models: []modelEntry{{Name: "tinyllama:latest"}}})
	}))
	defer srv.Close()

	c := New(srv.URL)
	if !c.HasModel(context.Background(), "tinyllama") {
		t.Error("HasModel(tinyllama) = false, want true")
	}
	if c.HasModel(context.Background(), "mistral") {
		t.Error("HasModel(mistral) = true, want false")
	}
}

func TestIsRunning_DownServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(url)
	if c.IsRunning(context.Background()) {
		t.Error("IsRunning = true for closed server")
	}
}
