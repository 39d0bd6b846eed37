package publisher

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

const (
	facebookCharLimit   = 63206
	facebookMaxMedia    = 10
	facebookMinSchedule = 10 * time.Minute
	facebookMaxSchedule = 75 * 24 * time.Hour
)

// facebookPublisher posts to a page feed via the Graph API. Multi-photo
// posts upload each photo unpublished first, then attach the returned ids
// to a single feed call.
type facebookPublisher struct {
	client      *apiClient
	baseURL     string
	pageID      string
	accessToken string
}

func newFacebook(creds Credentials) *facebookPublisher {
	return &facebookPublisher{
		client:      newAPIClient(20*time.Second, nil),
		baseURL:     "https://graph.facebook.com/v19.0",
		pageID:      creds["pageId"],
		accessToken: creds["accessToken"],
	}
}

func (p *facebookPublisher) Platform() string {
	return "facebook"
}

type graphIDResponse struct {
	ID     string `json:"id"`
	PostID string `json:"post_id"`
}

func (p *facebookPublisher) Publish(ctx context.Context, content string, opts *PublishOptions) *PublishResult {
	if content == "" {
		return rejected("facebook post content cannot be empty")
	}
	if n := len([]rune(content)); n > facebookCharLimit {
		return rejected("facebook post exceeds the %d character limit (%d characters)", facebookCharLimit, n)
	}

	var mediaURLs []string
	var scheduleAt *time.Time
	if opts != nil {
		mediaURLs = opts.MediaURLs
		scheduleAt = opts.ScheduleAt
	}
	if len(mediaURLs) > facebookMaxMedia {
		return rejected("facebook allows at most %d photos per post, got %d", facebookMaxMedia, len(mediaURLs))
	}

	// Native scheduling window is validated before any network call.
	if scheduleAt != nil {
		lead := time.Until(*scheduleAt)
		if lead < facebookMinSchedule {
			return rejected("facebook scheduled posts need at least %s lead time", facebookMinSchedule)
		}
		if lead > facebookMaxSchedule {
			return rejected("facebook scheduled posts cannot be more than 75 days out")
		}
	}

	body := map[string]interface{}{
		"message":      content,
		"access_token": p.accessToken,
	}
	if scheduleAt != nil {
		body["published"] = false
		body["scheduled_publish_time"] = scheduleAt.Unix()
	}

	// Photo fan-out: upload each photo unpublished, collect ids, attach all
	// to one feed call.
	if len(mediaURLs) > 0 {
		var attached []map[string]string
		for i, mediaURL := range mediaURLs {
			photoID, err := p.uploadUnpublishedPhoto(ctx, mediaURL)
			if err != nil {
				return failure("facebook photo upload failed (%d of %d): %v", i+1, len(mediaURLs), err)
			}
			attached = append(attached, map[string]string{"media_fbid": photoID})
		}
		body["attached_media"] = attached
	}

	var resp graphIDResponse
	if err := p.client.sendRequest(ctx, "POST", p.baseURL+"/"+p.pageID+"/feed", body, &resp); err != nil {
		return failure("facebook publish failed: %v", err)
	}
	postID := resp.ID
	if resp.PostID != "" {
		postID = resp.PostID
	}
	if postID == "" {
		return failure("facebook publish failed: no post id in response")
	}
	return success(postID, "https://www.facebook.com/"+url.PathEscape(postID))
}

func (p *facebookPublisher) uploadUnpublishedPhoto(ctx context.Context, mediaURL string) (string, error) {
	body := map[string]interface{}{
		"url":          mediaURL,
		"published":    false,
		"access_token": p.accessToken,
	}
	var resp graphIDResponse
	if err := p.client.sendRequest(ctx, "POST", p.baseURL+"/"+p.pageID+"/photos", body, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("no photo id in response")
	}
	return resp.ID, nil
}

func (p *facebookPublisher) ValidateCredentials(ctx context.Context) bool {
	_, err := p.GetAccountInfo(ctx)
	return err == nil
}

func (p *facebookPublisher) GetAccountInfo(ctx context.Context) (*AccountInfo, error) {
	var resp struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		FollowersCount int64  `json:"followers_count"`
		Picture        struct {
			Data struct {
				URL string `json:"url"`
			} `json:"data"`
		} `json:"picture"`
	}
	reqURL := fmt.Sprintf("%s/%s?fields=id,name,followers_count,picture&access_token=%s",
		p.baseURL, p.pageID, url.QueryEscape(p.accessToken))
	if err := p.client.sendRequest(ctx, "GET", reqURL, nil, &resp); err != nil {
		return nil, err
	}
	return &AccountInfo{
		ID:        resp.ID,
		Name:      resp.Name,
		Followers: resp.FollowersCount,
		AvatarURL: resp.Picture.Data.URL,
	}, nil
}

func (p *facebookPublisher) DeletePost(ctx context.Context, postID string) bool {
	reqURL := fmt.Sprintf("%s/%s?access_token=%s", p.baseURL, url.PathEscape(postID), url.QueryEscape(p.accessToken))
	var resp struct {
		Success bool `json:"success"`
	}
	err := p.client.sendRequest(ctx, "DELETE", reqURL, nil, &resp)
	return err == nil && resp.Success
}
