package publisher

import (
	"context"
	"net/url"
	"strings"
	"time"
)

const linkedinCharLimit = 3000

// linkedinPublisher creates UGC posts on behalf of a member urn.
type linkedinPublisher struct {
	client    *apiClient
	baseURL   string
	personURN string
}

func newLinkedIn(creds Credentials) *linkedinPublisher {
	return &linkedinPublisher{
		client: newAPIClient(15*time.Second, map[string]string{
			"Authorization":             "Bearer " + creds["accessToken"],
			"X-Restli-Protocol-Version": "2.0.0",
		}),
		baseURL:   "https://api.linkedin.com",
		personURN: creds["personUrn"],
	}
}

func (p *linkedinPublisher) Platform() string {
	return "linkedin"
}

func (p *linkedinPublisher) Publish(ctx context.Context, content string, opts *PublishOptions) *PublishResult {
	if content == "" {
		return rejected("linkedin post content cannot be empty")
	}
	if n := len([]rune(content)); n > linkedinCharLimit {
		return rejected("linkedin post exceeds the %d character limit (%d characters)", linkedinCharLimit, n)
	}

	media := []map[string]interface{}{}
	if opts != nil {
		for _, mediaURL := range opts.MediaURLs {
			media = append(media, map[string]interface{}{
				"status":      "READY",
				"originalUrl": mediaURL,
			})
		}
	}

	shareContent := map[string]interface{}{
		"shareCommentary": map[string]string{"text": content},
		"shareMediaCategory": func() string {
			if len(media) > 0 {
				return "ARTICLE"
			}
			return "NONE"
		}(),
	}
	if len(media) > 0 {
		shareContent["media"] = media
	}

	body := map[string]interface{}{
		"author":         p.personURN,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]interface{}{
			"com.linkedin.ugc.ShareContent": shareContent,
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := p.client.sendRequest(ctx, "POST", p.baseURL+"/v2/ugcPosts", body, &resp); err != nil {
		return failure("linkedin publish failed: %v", err)
	}
	if resp.ID == "" {
		return failure("linkedin publish failed: no post id in response")
	}
	return success(resp.ID, "https://www.linkedin.com/feed/update/"+url.PathEscape(resp.ID))
}

func (p *linkedinPublisher) ValidateCredentials(ctx context.Context) bool {
	_, err := p.GetAccountInfo(ctx)
	return err == nil
}

func (p *linkedinPublisher) GetAccountInfo(ctx context.Context) (*AccountInfo, error) {
	var resp struct {
		ID                 string `json:"id"`
		LocalizedFirstName string `json:"localizedFirstName"`
		LocalizedLastName  string `json:"localizedLastName"`
	}
	if err := p.client.sendRequest(ctx, "GET", p.baseURL+"/v2/me", nil, &resp); err != nil {
		return nil, err
	}
	return &AccountInfo{
		ID:   resp.ID,
		Name: strings.TrimSpace(resp.LocalizedFirstName + " " + resp.LocalizedLastName),
	}, nil
}

func (p *linkedinPublisher) DeletePost(ctx context.Context, postID string) bool {
	err := p.client.sendRequest(ctx, "DELETE", p.baseURL+"/v2/ugcPosts/"+url.PathEscape(postID), nil, nil)
	return err == nil
}
