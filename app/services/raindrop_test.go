package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(serverURL string) *RaindropClient {
	client := NewRaindropClient("test-token")
	client.baseURL = serverURL
	return client
}

func TestSaveBookmark(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/raindrop" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("Failed to decode request body: %v", err)
		}
		fmt.Fprint(w, `{"result": true, "item": {"_id": 9001}}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	id, err := client.SaveBookmark(context.Background(), "https://example.com/post", "A Post", "An excerpt", []string{"tech", "news"})
	if err != nil {
		t.Fatalf("SaveBookmark failed: %v", err)
	}

	if id != 9001 {
		t.Errorf("Expected bookmark id 9001, got %d", id)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Expected bearer auth, got %q", gotAuth)
	}
	if gotBody["link"] != "https://example.com/post" {
		t.Errorf("Expected link in payload, got %v", gotBody["link"])
	}
	tags, ok := gotBody["tags"].([]any)
	if !ok || len(tags) != 2 {
		t.Errorf("Expected 2 tags in payload, got %v", gotBody["tags"])
	}
}

func TestSaveBookmarkServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"result": false, "errorMessage": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.SaveBookmark(context.Background(), "https://example.com", "", "", nil)
	if err == nil {
		t.Fatal("Expected error for non-2xx response")
	}
	// The response body is the failure message shown to the user
	if got := err.Error(); !strings.Contains(got, "rate limited") {
		t.Errorf("Expected error to carry the response body, got %q", got)
	}
}

func TestSaveBookmarkMissingItem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result": true}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.SaveBookmark(context.Background(), "https://example.com", "", "", nil)
	if err == nil {
		t.Error("Expected error when the API returns no item")
	}
}
