package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"social-gateway/internal/models"
	"social-gateway/internal/queue"
	"social-gateway/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	store.Store
	contents     map[string]*models.Content
	channels     map[string]*models.Channel
	publications map[string]*models.Publication
	patches      map[string]map[string]interface{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		contents:     map[string]*models.Content{},
		channels:     map[string]*models.Channel{},
		publications: map[string]*models.Publication{},
		patches:      map[string]map[string]interface{}{},
	}
}

func (f *fakeStore) GetContent(ctx context.Context, id string) (*models.Content, error) {
	if c, ok := f.contents[id]; ok {
		return c, nil
	}
	return nil, assert.AnError
}

func (f *fakeStore) GetChannel(ctx context.Context, id string) (*models.Channel, error) {
	if ch, ok := f.channels[id]; ok {
		return ch, nil
	}
	return nil, assert.AnError
}

func (f *fakeStore) CreatePublication(ctx context.Context, p *models.Publication) error {
	f.publications[p.ID] = p
	return nil
}

func (f *fakeStore) PatchPublication(ctx context.Context, id string, fields map[string]interface{}) error {
	f.patches[id] = fields
	return nil
}

func newPublishRouter(s *fakeStore, q *queue.Queue) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewPublishHandler(s, q)
	r := gin.New()
	r.POST("/api/publish", h.Publish)
	r.GET("/api/jobs/:id", h.GetJob)
	r.POST("/api/jobs/:id/cancel", h.CancelJob)
	r.GET("/api/queue/metrics", h.GetQueueMetrics)
	return r
}

func TestPublishEnqueuesPerChannel(t *testing.T) {
	s := newFakeStore()
	s.contents["content-1"] = &models.Content{ID: "content-1", Body: "hi"}
	s.channels["chan-1"] = &models.Channel{ID: "chan-1"}
	s.channels["chan-2"] = &models.Channel{ID: "chan-2"}
	q := queue.New(queue.Config{})
	router := newPublishRouter(s, q)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/publish",
		strings.NewReader(`{"contentId":"content-1","channelIds":["chan-1","chan-2"]}`))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Len(t, s.publications, 2)
	assert.Len(t, s.patches, 2) // each publication got its job id

	m := q.Metrics()
	assert.Equal(t, 2, m.Waiting)
}

func TestPublishRejectsPastSchedule(t *testing.T) {
	s := newFakeStore()
	s.contents["content-1"] = &models.Content{ID: "content-1", Body: "hi"}
	s.channels["chan-1"] = &models.Channel{ID: "chan-1"}
	router := newPublishRouter(s, queue.New(queue.Config{}))

	past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/publish",
		strings.NewReader(`{"contentId":"content-1","channelIds":["chan-1"],"scheduleAt":"`+past+`"}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPublishUnknownContent(t *testing.T) {
	router := newPublishRouter(newFakeStore(), queue.New(queue.Config{}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/publish",
		strings.NewReader(`{"contentId":"nope","channelIds":["chan-1"]}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCancelJobStates(t *testing.T) {
	q := queue.New(queue.Config{})
	router := newPublishRouter(newFakeStore(), q)

	id, err := q.Schedule(queue.PublishJob{ContentID: "c"}, time.Now().Add(time.Hour))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/jobs/"+id+"/cancel", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// A second cancel is a conflict, the job is already finished.
	w = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/api/jobs/"+id+"/cancel", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetJobAndMetrics(t *testing.T) {
	q := queue.New(queue.Config{})
	router := newPublishRouter(newFakeStore(), q)

	id := q.Add(queue.PublishJob{ContentID: "c"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/jobs/"+id, nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var status queue.JobStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, queue.StateWaiting, status.State)

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/queue/metrics", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var m queue.Metrics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	assert.Equal(t, 1, m.Waiting)

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/jobs/unknown", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
