package delivery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestSendMessages(t *testing.T) {
	var gotPath string
	var gotItems []Item

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotItems); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(batchResponse{Results: []ItemResult{
			{ID: "https://x.com/a", Status: "ok"},
			{ID: "https://x.com/b", Status: "error", Detail: "dm window closed"},
		}})
	}))
	defer server.Close()

	client := New(server.URL, zap.NewNop())

	items := []Item{
		{Destination: "https://x.com/a", Message: "hey"},
		{Destination: "https://x.com/b", Message: "hi"},
	}
	results, err := client.SendMessages(context.Background(), items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/send-messages" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if len(gotItems) != 2 || gotItems[0].Destination != "https://x.com/a" {
		t.Fatalf("unexpected request payload: %+v", gotItems)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[1].Status != "error" || results[1].Detail != "dm window closed" {
		t.Fatalf("unexpected result: %+v", results[1])
	}
}

func TestSendMessagesBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL, zap.NewNop())

	if _, err := client.SendMessages(context.Background(), []Item{{Destination: "https://x.com/a"}}); err == nil {
		t.Fatalf("expected error for non-200 response")
	}
}

func TestItemWireFormat(t *testing.T) {
	data, err := json.Marshal(Item{Destination: "https://x.com/a", Message: "hey"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The automation service expects these exact keys.
	want := `{"x_url":"https://x.com/a","personal_message":"hey"}`
	if string(data) != want {
		t.Fatalf("unexpected wire format: %s", data)
	}
}

func TestHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer server.Close()

	client := New(server.URL, zap.NewNop())
	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
