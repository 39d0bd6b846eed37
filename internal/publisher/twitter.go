package publisher

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

const (
	twitterCharLimit = 280
	twitterMaxMedia  = 4
)

// twitterPublisher posts via the v2 API. Threads are published as a strict
// sequential reply chain with an inter-post delay to respect rate limits.
type twitterPublisher struct {
	client      *apiClient
	baseURL     string
	threadDelay time.Duration
}

func newTwitter(creds Credentials) *twitterPublisher {
	return &twitterPublisher{
		client: newAPIClient(15*time.Second, map[string]string{
			"Authorization": "Bearer " + creds["accessToken"],
		}),
		baseURL:     "https://api.twitter.com",
		threadDelay: 2 * time.Second,
	}
}

func (p *twitterPublisher) Platform() string {
	return "twitter"
}

type tweetRequest struct {
	Text  string `json:"text"`
	Reply *struct {
		InReplyToTweetID string `json:"in_reply_to_tweet_id"`
	} `json:"reply,omitempty"`
	Media *struct {
		MediaIDs []string `json:"media_ids"`
	} `json:"media,omitempty"`
}

type tweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

func (p *twitterPublisher) Publish(ctx context.Context, content string, opts *PublishOptions) *PublishResult {
	if opts != nil && len(opts.ThreadParts) > 0 {
		return p.publishThread(ctx, opts.ThreadParts)
	}

	if content == "" {
		return rejected("tweet content cannot be empty")
	}
	if n := len([]rune(content)); n > twitterCharLimit {
		return rejected("tweet exceeds the %d character limit (%d characters)", twitterCharLimit, n)
	}
	if opts != nil && len(opts.MediaURLs) > twitterMaxMedia {
		return rejected("twitter allows at most %d media attachments, got %d", twitterMaxMedia, len(opts.MediaURLs))
	}

	id, err := p.postTweet(ctx, content, "")
	if err != nil {
		return failure("twitter publish failed: %v", err)
	}
	return success(id, p.postURL(id))
}

// publishThread posts each part as a reply to the previous one. The first
// tweet's id and URL are the canonical handle for the whole thread.
func (p *twitterPublisher) publishThread(ctx context.Context, parts []string) *PublishResult {
	for i, part := range parts {
		if part == "" {
			return rejected("thread part %d is empty", i+1)
		}
		if n := len([]rune(part)); n > twitterCharLimit {
			return rejected("thread part %d exceeds the %d character limit (%d characters)", i+1, twitterCharLimit, n)
		}
	}

	var firstID, previousID string
	for i, part := range parts {
		if i > 0 {
			select {
			case <-ctx.Done():
				return failure("thread publish interrupted after %d of %d posts: %v", i, len(parts), ctx.Err())
			case <-time.After(p.threadDelay):
			}
		}

		id, err := p.postTweet(ctx, part, previousID)
		if err != nil {
			return failure("thread publish failed at part %d of %d: %v", i+1, len(parts), err)
		}
		if firstID == "" {
			firstID = id
		}
		previousID = id
	}

	return success(firstID, p.postURL(firstID))
}

func (p *twitterPublisher) postTweet(ctx context.Context, text, inReplyTo string) (string, error) {
	req := tweetRequest{Text: text}
	if inReplyTo != "" {
		req.Reply = &struct {
			InReplyToTweetID string `json:"in_reply_to_tweet_id"`
		}{InReplyToTweetID: inReplyTo}
	}

	var resp tweetResponse
	if err := p.client.sendRequest(ctx, "POST", p.baseURL+"/2/tweets", req, &resp); err != nil {
		return "", err
	}
	if resp.Data.ID == "" {
		return "", fmt.Errorf("no tweet id in response")
	}
	return resp.Data.ID, nil
}

func (p *twitterPublisher) postURL(id string) string {
	return "https://twitter.com/i/web/status/" + url.PathEscape(id)
}

func (p *twitterPublisher) ValidateCredentials(ctx context.Context) bool {
	_, err := p.GetAccountInfo(ctx)
	return err == nil
}

func (p *twitterPublisher) GetAccountInfo(ctx context.Context) (*AccountInfo, error) {
	var resp struct {
		Data struct {
			ID            string `json:"id"`
			Name          string `json:"name"`
			Username      string `json:"username"`
			Verified      bool   `json:"verified"`
			PublicMetrics struct {
				FollowersCount int64 `json:"followers_count"`
			} `json:"public_metrics"`
		} `json:"data"`
	}
	err := p.client.sendRequest(ctx, "GET", p.baseURL+"/2/users/me?user.fields=public_metrics,verified", nil, &resp)
	if err != nil {
		return nil, err
	}
	return &AccountInfo{
		ID:         resp.Data.ID,
		Name:       resp.Data.Name,
		Username:   resp.Data.Username,
		Followers:  resp.Data.PublicMetrics.FollowersCount,
		IsVerified: resp.Data.Verified,
	}, nil
}

func (p *twitterPublisher) DeletePost(ctx context.Context, postID string) bool {
	var resp struct {
		Data struct {
			Deleted bool `json:"deleted"`
		} `json:"data"`
	}
	err := p.client.sendRequest(ctx, "DELETE", p.baseURL+"/2/tweets/"+url.PathEscape(postID), nil, &resp)
	return err == nil && resp.Data.Deleted
}
