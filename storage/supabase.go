// Package storage uploads template assets to Supabase Storage buckets.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

type Client struct {
	url        string
	serviceKey string
	httpClient *http.Client
}

// NewClientFromEnv builds a client from SUPABASE_URL and
// SUPABASE_SERVICE_KEY.
func NewClientFromEnv() (*Client, error) {
	url := os.Getenv("SUPABASE_URL")
	key := os.Getenv("SUPABASE_SERVICE_KEY")
	if url == "" || key == "" {
		return nil, fmt.Errorf("supabase storage configuration missing")
	}
	return &Client{
		url:        url,
		serviceKey: key,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Upload streams an object into the bucket and returns its public URL.
// Re-uploading an existing path overwrites it.
func (c *Client) Upload(ctx context.Context, bucket, path, contentType string, body io.Reader) (string, error) {
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.url, bucket, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach supabase storage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 32<<10))
		return "", fmt.Errorf("supabase storage error (%d): %s", resp.StatusCode, string(respBody))
	}

	return c.PublicURL(bucket, path), nil
}

// PublicURL returns the unauthenticated read URL for an object in a
// public bucket.
func (c *Client) PublicURL(bucket, path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.url, bucket, path)
}
