package sync

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
)

// S3PosterStore mirrors poster images from the blog's CDN into the app's own
// bucket, so catalog images survive post edits and deletions upstream.
type S3PosterStore struct {
	client     *minio.Client
	bucket     string
	publicBase string
	httpClient *http.Client
}

func NewS3PosterStore(client *minio.Client, bucket, publicBase string, httpClient *http.Client) *S3PosterStore {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &S3PosterStore{
		client:     client,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
		httpClient: httpClient,
	}
}

func (s *S3PosterStore) MirrorPoster(ctx context.Context, movieID, sourceURL string) (string, error) {
	if s.client == nil || s.bucket == "" {
		return "", fmt.Errorf("poster storage is not configured")
	}
	if strings.TrimSpace(movieID) == "" || strings.TrimSpace(sourceURL) == "" {
		return "", fmt.Errorf("invalid poster mirror payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("build poster request: %w", err)
	}

	res, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch poster: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("poster source returned status %d", res.StatusCode)
	}

	contentType := res.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	objectKey := "posters/" + movieID + extensionFor(sourceURL)
	if _, err := s.client.PutObject(ctx, s.bucket, objectKey, res.Body, res.ContentLength, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return "", fmt.Errorf("store poster object: %w", err)
	}

	if s.publicBase != "" {
		return s.publicBase + "/" + objectKey, nil
	}
	return objectKey, nil
}

func extensionFor(sourceURL string) string {
	ext := strings.ToLower(path.Ext(sourceURL))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
		return ext
	default:
		return ".jpg"
	}
}
