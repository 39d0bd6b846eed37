// Package publisher exposes one capability contract over the platform
// adapters. Adapters never return an error from Publish: every failure is
// reported inside the PublishResult so callers can persist it verbatim.
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// PublishOptions carries optional publish parameters.
type PublishOptions struct {
	MediaURLs      []string               `json:"media_urls,omitempty"`
	EmbedData      map[string]interface{} `json:"embed_data,omitempty"`
	AttachmentURLs []string               `json:"attachment_urls,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	// ScheduleAt requests platform-native scheduling where supported.
	ScheduleAt *time.Time `json:"schedule_at,omitempty"`
	// ThreadParts publishes a sequential reply chain instead of a single
	// post. The first part replaces content.
	ThreadParts []string `json:"thread_parts,omitempty"`
}

// PublishResult is the outcome of one publish attempt.
type PublishResult struct {
	Success bool   `json:"success"`
	PostID  string `json:"post_id,omitempty"`
	PostURL string `json:"post_url,omitempty"`
	Error   string `json:"error,omitempty"`
	// Permanent marks a validation rejection: retrying the same input can
	// never succeed.
	Permanent   bool       `json:"permanent,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// AccountInfo describes the platform account behind a channel.
type AccountInfo struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	Username       string                 `json:"username,omitempty"`
	Followers      int64                  `json:"followers,omitempty"`
	AvatarURL      string                 `json:"avatar_url,omitempty"`
	IsVerified     bool                   `json:"is_verified,omitempty"`
	AdditionalData map[string]interface{} `json:"additional_data,omitempty"`
}

// Publisher is the per-platform capability contract.
type Publisher interface {
	Platform() string
	Publish(ctx context.Context, content string, opts *PublishOptions) *PublishResult
	ValidateCredentials(ctx context.Context) bool
	GetAccountInfo(ctx context.Context) (*AccountInfo, error)
	DeletePost(ctx context.Context, postID string) bool
}

func failure(format string, args ...interface{}) *PublishResult {
	return &PublishResult{Success: false, Error: fmt.Sprintf(format, args...)}
}

// rejected reports a pre-flight validation failure, detected before any
// network call is made.
func rejected(format string, args ...interface{}) *PublishResult {
	return &PublishResult{Success: false, Permanent: true, Error: fmt.Sprintf(format, args...)}
}

func success(postID, postURL string) *PublishResult {
	now := time.Now().UTC()
	return &PublishResult{Success: true, PostID: postID, PostURL: postURL, PublishedAt: &now}
}

// apiClient is the shared JSON request helper used by every adapter. Each
// adapter call runs under a bounded timeout so a stalled platform never
// exhausts the queue's worker pool.
type apiClient struct {
	http    *http.Client
	headers map[string]string
}

func newAPIClient(timeout time.Duration, headers map[string]string) *apiClient {
	return &apiClient{
		http:    &http.Client{Timeout: timeout},
		headers: headers,
	}
}

func (c *apiClient) sendRequest(ctx context.Context, method, url string, body interface{}, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return err
	}

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get("Content-Type") == "" && body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("API error: %s - %s", resp.Status, string(respBody))
	}

	if out != nil {
		return json.Unmarshal(respBody, out)
	}
	return nil
}
