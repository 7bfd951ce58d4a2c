package translate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"doc-translator/internal/types"
)

func TestListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Errorf("path = %q, want /v1/models", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"id":"gpt-4o-mini","owned_by":"openai"},{"id":"gpt-4o","owned_by":"openai"}]}`))
	}))
	defer server.Close()

	models, err := NewModelLister(server.URL+"/v1", "test-key").ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels() returned error: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("got %d models, want 2", len(models))
	}
	// Sorted by ID.
	if models[0].ID != "gpt-4o" || models[1].ID != "gpt-4o-mini" {
		t.Errorf("models not sorted: %v", models)
	}
}

func TestListModelsRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := NewModelLister(server.URL, "bad-key").ListModels(context.Background())
	if !types.IsCode(err, types.ErrTranslateRequest) {
		t.Errorf("ListModels() error = %v, want translate request error", err)
	}
}
