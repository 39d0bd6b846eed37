package api

import (
	"errors"
	"net/http"
	"time"

	"social-gateway/internal/models"
	"social-gateway/internal/queue"
	"social-gateway/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PublishHandler struct {
	Store store.Store
	Queue *queue.Queue
}

func NewPublishHandler(s store.Store, q *queue.Queue) *PublishHandler {
	return &PublishHandler{Store: s, Queue: q}
}

// Publish enqueues content for one or more channels, immediately or at a
// scheduled time
func (h *PublishHandler) Publish(c *gin.Context) {
	var req struct {
		ContentID  string     `json:"contentId" binding:"required"`
		ChannelIDs []string   `json:"channelIds" binding:"required"`
		MediaURLs  []string   `json:"mediaUrls"`
		Priority   int        `json:"priority"`
		ScheduleAt *time.Time `json:"scheduleAt"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	content, err := h.Store.GetContent(c.Request.Context(), req.ContentID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "content not found"})
		return
	}

	var results []gin.H
	for _, channelID := range req.ChannelIDs {
		if _, err := h.Store.GetChannel(c.Request.Context(), channelID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "channel not found: " + channelID})
			return
		}

		publication := models.Publication{
			ID:           uuid.NewString(),
			ContentID:    req.ContentID,
			ChannelID:    channelID,
			Status:       models.PublicationStatusScheduled,
			ScheduledFor: req.ScheduleAt,
		}
		if err := h.Store.CreatePublication(c.Request.Context(), &publication); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		job := queue.PublishJob{
			ContentID:     req.ContentID,
			ChannelID:     channelID,
			PublicationID: publication.ID,
			Content:       content.Body,
			MediaURLs:     req.MediaURLs,
			Priority:      req.Priority,
		}

		var jobID string
		if req.ScheduleAt != nil {
			jobID, err = h.Queue.Schedule(job, *req.ScheduleAt)
			if err != nil {
				if errors.Is(err, queue.ErrPastSchedule) {
					c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		} else {
			jobID = h.Queue.Add(job)
		}

		if err := h.Store.PatchPublication(c.Request.Context(), publication.ID, map[string]interface{}{"job_id": jobID}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		results = append(results, gin.H{"publication_id": publication.ID, "job_id": jobID, "channel_id": channelID})
	}

	c.JSON(http.StatusAccepted, gin.H{"publications": results})
}

// GetPublication returns one publication record
func (h *PublishHandler) GetPublication(c *gin.Context) {
	publication, err := h.Store.GetPublication(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "publication not found"})
		return
	}

	c.JSON(http.StatusOK, publication)
}

// ListPublications returns all publications for a piece of content
func (h *PublishHandler) ListPublications(c *gin.Context) {
	publications, err := h.Store.ListPublications(c.Request.Context(), c.Query("contentId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, publications)
}

// GetJob returns the live queue state of a job
func (h *PublishHandler) GetJob(c *gin.Context) {
	status, ok := h.Queue.JobStatus(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	c.JSON(http.StatusOK, status)
}

// CancelJob cancels a waiting or delayed job. An active job cannot be
// stopped mid-publish.
func (h *PublishHandler) CancelJob(c *gin.Context) {
	jobID := c.Param("id")

	if !h.Queue.Cancel(jobID) {
		c.JSON(http.StatusConflict, gin.H{"error": "job is not cancellable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Job cancelled successfully"})
}

// GetQueueMetrics returns per-state job counts
func (h *PublishHandler) GetQueueMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.Queue.Metrics())
}

// PauseQueue stops dequeuing without losing queued jobs
func (h *PublishHandler) PauseQueue(c *gin.Context) {
	h.Queue.Pause()
	c.JSON(http.StatusOK, gin.H{"message": "Queue paused"})
}

// ResumeQueue restarts dequeuing
func (h *PublishHandler) ResumeQueue(c *gin.Context) {
	h.Queue.Resume()
	c.JSON(http.StatusOK, gin.H{"message": "Queue resumed"})
}
