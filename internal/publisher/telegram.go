package publisher

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const (
	telegramTextLimit    = 4096
	telegramCaptionLimit = 1024
	telegramMaxMedia     = 10
)

// telegramPublisher posts to a channel via the Bot API. Exactly one medium
// goes out as sendPhoto with the caption; more than one becomes a
// sendMediaGroup call with the caption attached only to the first item.
type telegramPublisher struct {
	client    *apiClient
	baseURL   string
	botToken  string
	channelID string
}

func newTelegram(creds Credentials) *telegramPublisher {
	return &telegramPublisher{
		client:    newAPIClient(15*time.Second, nil),
		baseURL:   "https://api.telegram.org",
		botToken:  creds["botToken"],
		channelID: creds["channelId"],
	}
}

func (p *telegramPublisher) Platform() string {
	return "telegram"
}

func (p *telegramPublisher) apiURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", p.baseURL, p.botToken, method)
}

type telegramMessageResponse struct {
	OK     bool `json:"ok"`
	Result struct {
		MessageID int64 `json:"message_id"`
		Chat      struct {
			Username string `json:"username"`
		} `json:"chat"`
	} `json:"result"`
}

func (p *telegramPublisher) Publish(ctx context.Context, content string, opts *PublishOptions) *PublishResult {
	if content == "" {
		return rejected("telegram message content cannot be empty")
	}

	var mediaURLs []string
	if opts != nil {
		mediaURLs = opts.MediaURLs
	}
	if len(mediaURLs) > telegramMaxMedia {
		return rejected("telegram allows at most %d media items per message, got %d", telegramMaxMedia, len(mediaURLs))
	}

	if len(mediaURLs) > 0 {
		if n := len([]rune(content)); n > telegramCaptionLimit {
			return rejected("telegram caption exceeds the %d character limit (%d characters)", telegramCaptionLimit, n)
		}
	} else if n := len([]rune(content)); n > telegramTextLimit {
		return rejected("telegram message exceeds the %d character limit (%d characters)", telegramTextLimit, n)
	}

	var resp telegramMessageResponse
	var err error
	switch len(mediaURLs) {
	case 0:
		err = p.client.sendRequest(ctx, "POST", p.apiURL("sendMessage"), map[string]interface{}{
			"chat_id": p.channelID,
			"text":    content,
		}, &resp)
	case 1:
		err = p.client.sendRequest(ctx, "POST", p.apiURL("sendPhoto"), map[string]interface{}{
			"chat_id": p.channelID,
			"photo":   mediaURLs[0],
			"caption": content,
		}, &resp)
	default:
		media := make([]map[string]interface{}, 0, len(mediaURLs))
		for i, mediaURL := range mediaURLs {
			item := map[string]interface{}{
				"type":  "photo",
				"media": mediaURL,
			}
			if i == 0 {
				item["caption"] = content
			}
			media = append(media, item)
		}
		// sendMediaGroup returns an array; the first message carries the id.
		var groupResp struct {
			OK     bool `json:"ok"`
			Result []struct {
				MessageID int64 `json:"message_id"`
				Chat      struct {
					Username string `json:"username"`
				} `json:"chat"`
			} `json:"result"`
		}
		err = p.client.sendRequest(ctx, "POST", p.apiURL("sendMediaGroup"), map[string]interface{}{
			"chat_id": p.channelID,
			"media":   media,
		}, &groupResp)
		if err == nil {
			resp.OK = groupResp.OK
			if len(groupResp.Result) > 0 {
				resp.Result.MessageID = groupResp.Result[0].MessageID
				resp.Result.Chat.Username = groupResp.Result[0].Chat.Username
			}
		}
	}

	if err != nil {
		return failure("telegram publish failed: %v", err)
	}
	if !resp.OK || resp.Result.MessageID == 0 {
		return failure("telegram publish failed: no message id in response")
	}

	messageID := strconv.FormatInt(resp.Result.MessageID, 10)
	postURL := ""
	if resp.Result.Chat.Username != "" {
		postURL = fmt.Sprintf("https://t.me/%s/%s", resp.Result.Chat.Username, messageID)
	}
	return success(messageID, postURL)
}

func (p *telegramPublisher) ValidateCredentials(ctx context.Context) bool {
	var resp struct {
		OK bool `json:"ok"`
	}
	err := p.client.sendRequest(ctx, "GET", p.apiURL("getMe"), nil, &resp)
	return err == nil && resp.OK
}

func (p *telegramPublisher) GetAccountInfo(ctx context.Context) (*AccountInfo, error) {
	var resp struct {
		OK     bool `json:"ok"`
		Result struct {
			ID       int64  `json:"id"`
			Title    string `json:"title"`
			Username string `json:"username"`
		} `json:"result"`
	}
	err := p.client.sendRequest(ctx, "POST", p.apiURL("getChat"), map[string]interface{}{
		"chat_id": p.channelID,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, fmt.Errorf("telegram getChat returned not ok")
	}
	return &AccountInfo{
		ID:       strconv.FormatInt(resp.Result.ID, 10),
		Name:     resp.Result.Title,
		Username: resp.Result.Username,
	}, nil
}

func (p *telegramPublisher) DeletePost(ctx context.Context, postID string) bool {
	messageID, err := strconv.ParseInt(postID, 10, 64)
	if err != nil {
		return false
	}
	var resp struct {
		OK     bool `json:"ok"`
		Result bool `json:"result"`
	}
	err = p.client.sendRequest(ctx, "POST", p.apiURL("deleteMessage"), map[string]interface{}{
		"chat_id":    p.channelID,
		"message_id": messageID,
	}, &resp)
	return err == nil && resp.OK && resp.Result
}
