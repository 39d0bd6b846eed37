package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFacebook(serverURL string) *facebookPublisher {
	p := newFacebook(Credentials{"pageId": "page1", "accessToken": "tok"})
	p.baseURL = serverURL
	return p
}

func TestFacebookMultiPhotoFanOut(t *testing.T) {
	var photoUploads []string
	var feedBody map[string]interface{}
	var photoCounter int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page1/photos":
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, false, body["published"], "photos must be uploaded unpublished")
			photoUploads = append(photoUploads, body["url"].(string))
			fmt.Fprintf(w, `{"id":"photo-%d"}`, atomic.AddInt64(&photoCounter, 1))
		case "/page1/feed":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&feedBody))
			fmt.Fprint(w, `{"id":"page1_post7"}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	p := testFacebook(srv.URL)
	result := p.Publish(context.Background(), "three photos", &PublishOptions{
		MediaURLs: []string{"http://img/1.jpg", "http://img/2.jpg", "http://img/3.jpg"},
	})

	require.True(t, result.Success, result.Error)
	assert.Equal(t, "page1_post7", result.PostID)
	assert.Equal(t, []string{"http://img/1.jpg", "http://img/2.jpg", "http://img/3.jpg"}, photoUploads)

	attached, ok := feedBody["attached_media"].([]interface{})
	require.True(t, ok, "feed call must carry attached_media")
	require.Len(t, attached, 3)
	first := attached[0].(map[string]interface{})
	assert.Equal(t, "photo-1", first["media_fbid"])
}

func TestFacebookSchedulingWindow(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		fmt.Fprint(w, `{"id":"x"}`)
	}))
	defer srv.Close()

	p := testFacebook(srv.URL)

	tooSoon := time.Now().Add(5 * time.Minute)
	result := p.Publish(context.Background(), "soon", &PublishOptions{ScheduleAt: &tooSoon})
	require.False(t, result.Success)
	assert.Contains(t, result.Error, "lead time")

	tooFar := time.Now().Add(80 * 24 * time.Hour)
	result = p.Publish(context.Background(), "far", &PublishOptions{ScheduleAt: &tooFar})
	require.False(t, result.Success)
	assert.Contains(t, result.Error, "75 days")

	assert.Equal(t, int64(0), atomic.LoadInt64(&calls), "window validation precedes any network call")

	inWindow := time.Now().Add(time.Hour)
	result = p.Publish(context.Background(), "ok", &PublishOptions{ScheduleAt: &inWindow})
	require.True(t, result.Success, result.Error)
}

func TestFacebookValidationErrors(t *testing.T) {
	p := testFacebook("http://127.0.0.1:0")

	result := p.Publish(context.Background(), "", nil)
	require.False(t, result.Success)
	assert.Equal(t, "facebook post content cannot be empty", result.Error)

	media := make([]string, 11)
	result = p.Publish(context.Background(), "too many", &PublishOptions{MediaURLs: media})
	require.False(t, result.Success)
	assert.Contains(t, result.Error, "at most 10 photos")
}

func TestFacebookSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"Invalid OAuth access token"}}`)
	}))
	defer srv.Close()

	p := testFacebook(srv.URL)
	result := p.Publish(context.Background(), "hello", nil)

	require.False(t, result.Success)
	assert.Contains(t, result.Error, "facebook publish failed")
	assert.Contains(t, result.Error, "Invalid OAuth access token")
}
