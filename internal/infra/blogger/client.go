package blogger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to the blogging-platform posts API that the project uses as a
// lightweight CMS. Each blog post describes one movie.
type Client struct {
	httpClient *http.Client
	baseURL    string
	blogID     string
	apiKey     string
}

type Post struct {
	ID      string
	Title   string
	Content string
	Labels  []string
	Updated time.Time
}

type Page struct {
	Posts         []Post
	NextPageToken string
}

type postPayload struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Labels  []string `json:"labels"`
	Updated string   `json:"updated"`
}

type postListPayload struct {
	Items         []postPayload `json:"items"`
	NextPageToken string        `json:"nextPageToken"`
}

func NewClient(httpClient *http.Client, baseURL, blogID, apiKey string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		blogID:     blogID,
		apiKey:     apiKey,
	}
}

func (c *Client) ListPosts(ctx context.Context, pageToken string, maxResults int) (Page, error) {
	if c.baseURL == "" || c.blogID == "" {
		return Page{}, fmt.Errorf("blogger client is not configured")
	}
	if maxResults <= 0 {
		maxResults = 20
	}

	endpoint := fmt.Sprintf("%s/blogs/%s/posts", c.baseURL, url.PathEscape(c.blogID))
	query := url.Values{}
	query.Set("maxResults", strconv.Itoa(maxResults))
	query.Set("fetchBodies", "true")
	if c.apiKey != "" {
		query.Set("key", c.apiKey)
	}
	if pageToken != "" {
		query.Set("pageToken", pageToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return Page{}, fmt.Errorf("build posts request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("fetch posts page: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("posts API returned status %d", res.StatusCode)
	}

	var payload postListPayload
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return Page{}, fmt.Errorf("decode posts page: %w", err)
	}

	page := Page{NextPageToken: payload.NextPageToken}
	page.Posts = make([]Post, 0, len(payload.Items))
	for _, item := range payload.Items {
		post := Post{
			ID:      item.ID,
			Title:   item.Title,
			Content: item.Content,
			Labels:  item.Labels,
		}
		if item.Updated != "" {
			if updated, err := time.Parse(time.RFC3339, item.Updated); err == nil {
				post.Updated = updated.UTC()
			}
		}
		page.Posts = append(page.Posts, post)
	}

	return page, nil
}

// FetchAll walks every page of the blog. Page size is bounded by the caller's
// maxResults; the posts API caps it server-side as well.
func (c *Client) FetchAll(ctx context.Context, maxResults int) ([]Post, error) {
	var all []Post
	pageToken := ""

	for {
		page, err := c.ListPosts(ctx, pageToken, maxResults)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Posts...)
		if page.NextPageToken == "" {
			return all, nil
		}
		pageToken = page.NextPageToken
	}
}
