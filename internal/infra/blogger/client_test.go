package blogger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchAllWalksEveryPage(t *testing.T) {
	pages := map[string]postListPayload{
		"": {
			Items: []postPayload{
				{ID: "p1", Title: "First", Labels: []string{"published"}, Updated: "2026-08-01T10:00:00Z"},
				{ID: "p2", Title: "Second"},
			},
			NextPageToken: "tok2",
		},
		"tok2": {
			Items: []postPayload{{ID: "p3", Title: "Third"}},
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/blogs/blog-1/posts" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "k-123" {
			t.Fatalf("missing api key in query: %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(pages[r.URL.Query().Get("pageToken")])
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, "blog-1", "k-123")

	posts, err := client.FetchAll(context.Background(), 2)
	if err != nil {
		t.Fatalf("fetch all posts: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("unexpected post count: got %d want 3", len(posts))
	}
	if posts[0].ID != "p1" || posts[2].ID != "p3" {
		t.Fatalf("unexpected post order: %+v", posts)
	}
	if posts[0].Updated.IsZero() {
		t.Fatalf("expected parsed updated timestamp on first post")
	}
}

func TestListPostsFailsOnNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, "blog-1", "")
	if _, err := client.ListPosts(context.Background(), "", 10); err == nil {
		t.Fatalf("expected error on 403 response")
	}
}
