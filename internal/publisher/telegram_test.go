package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTelegram(serverURL string) *telegramPublisher {
	p := newTelegram(Credentials{"botToken": "bot123", "channelId": "@mychan"})
	p.baseURL = serverURL
	return p
}

func TestTelegramPlainTextMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/botbot123/sendMessage", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "@mychan", body["chat_id"])
		assert.Equal(t, "hello channel", body["text"])
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":42,"chat":{"username":"mychan"}}}`)
	}))
	defer srv.Close()

	p := testTelegram(srv.URL)
	result := p.Publish(context.Background(), "hello channel", nil)

	require.True(t, result.Success, result.Error)
	assert.Equal(t, "42", result.PostID)
	assert.Equal(t, "https://t.me/mychan/42", result.PostURL)
}

func TestTelegramSinglePhotoUsesCaption(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/botbot123/sendPhoto", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "http://img/1.jpg", body["photo"])
		assert.Equal(t, "look at this", body["caption"])
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":7,"chat":{"username":"mychan"}}}`)
	}))
	defer srv.Close()

	p := testTelegram(srv.URL)
	result := p.Publish(context.Background(), "look at this", &PublishOptions{
		MediaURLs: []string{"http://img/1.jpg"},
	})

	require.True(t, result.Success, result.Error)
	assert.Equal(t, "7", result.PostID)
}

func TestTelegramMediaGroupCaptionOnFirstOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/botbot123/sendMediaGroup", r.URL.Path)
		var body struct {
			Media []map[string]interface{} `json:"media"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Media, 3)
		assert.Equal(t, "album caption", body.Media[0]["caption"])
		_, second := body.Media[1]["caption"]
		_, third := body.Media[2]["caption"]
		assert.False(t, second, "caption only on the first item")
		assert.False(t, third, "caption only on the first item")
		fmt.Fprint(w, `{"ok":true,"result":[{"message_id":100,"chat":{"username":"mychan"}},{"message_id":101},{"message_id":102}]}`)
	}))
	defer srv.Close()

	p := testTelegram(srv.URL)
	result := p.Publish(context.Background(), "album caption", &PublishOptions{
		MediaURLs: []string{"http://img/1.jpg", "http://img/2.jpg", "http://img/3.jpg"},
	})

	require.True(t, result.Success, result.Error)
	assert.Equal(t, "100", result.PostID)
}

func TestTelegramLimits(t *testing.T) {
	p := testTelegram("http://127.0.0.1:0")

	result := p.Publish(context.Background(), "", nil)
	require.False(t, result.Success)
	assert.Equal(t, "telegram message content cannot be empty", result.Error)

	result = p.Publish(context.Background(), strings.Repeat("x", 4097), nil)
	require.False(t, result.Success)
	assert.True(t, result.Permanent, "validation rejections are not retryable")
	assert.Contains(t, result.Error, "4096 character limit")

	// Caption limit is stricter once media is attached.
	result = p.Publish(context.Background(), strings.Repeat("x", 1025), &PublishOptions{
		MediaURLs: []string{"http://img/1.jpg"},
	})
	require.False(t, result.Success)
	assert.Contains(t, result.Error, "1024 character limit")

	media := make([]string, 11)
	result = p.Publish(context.Background(), "caption", &PublishOptions{MediaURLs: media})
	require.False(t, result.Success)
	assert.Contains(t, result.Error, "at most 10 media items")
}

func TestTelegramDeletePost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/botbot123/deleteMessage", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(42), body["message_id"])
		fmt.Fprint(w, `{"ok":true,"result":true}`)
	}))
	defer srv.Close()

	p := testTelegram(srv.URL)
	assert.True(t, p.DeletePost(context.Background(), "42"))
	assert.False(t, p.DeletePost(context.Background(), "not-a-number"))
}
