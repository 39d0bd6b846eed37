package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"social-gateway/internal/ai"
	"social-gateway/internal/models"
	"social-gateway/internal/queue"

	"github.com/google/uuid"
)

// ActionSpec is one entry in an automation's ordered action list,
// dispatched on the type discriminator.
type ActionSpec struct {
	Type     string          `json:"type"`
	Required bool            `json:"required"`
	Params   json.RawMessage `json:"params"`
}

// ActionResult is the per-action outcome within one automation run.
type ActionResult struct {
	Action  string      `json:"action"`
	Success bool        `json:"success"`
	Result  interface{} `json:"result,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type generateContentParams struct {
	Topic     string `json:"topic"`
	Platform  string `json:"platform"`
	MaxLength int    `json:"maxLength"`
}

type publishContentParams struct {
	ContentID  string     `json:"contentId"`
	ChannelIDs []string   `json:"channelIds"`
	MediaURLs  []string   `json:"mediaUrls"`
	Priority   int        `json:"priority"`
	ScheduleAt *time.Time `json:"scheduleAt"`
}

type notificationParams struct {
	URL     string `json:"url"`
	Message string `json:"message"`
}

type callWebhookParams struct {
	URL     string                 `json:"url"`
	Method  string                 `json:"method"`
	Payload map[string]interface{} `json:"payload"`
}

type createDraftParams struct {
	Topic string `json:"topic"`
	Body  string `json:"body"`
}

// actionContext carries effects between actions of one run: a generated
// content id is implicitly available to a later publish action.
type actionContext struct {
	event         *models.Event
	payload       map[string]interface{}
	reprocessed   bool
	lastContentID string
}

func parseActions(raw string) ([]ActionSpec, error) {
	if raw == "" {
		return nil, nil
	}
	var actions []ActionSpec
	if err := json.Unmarshal([]byte(raw), &actions); err != nil {
		return nil, err
	}
	return actions, nil
}

func (e *Engine) executeAction(ctx context.Context, automation *models.Automation, action ActionSpec, runCtx *actionContext) ActionResult {
	switch action.Type {
	case "generate_content":
		return e.generateContent(ctx, automation, action, runCtx)
	case "publish_content":
		return e.publishContent(ctx, action, runCtx)
	case "send_notification":
		return e.sendNotification(ctx, action, runCtx)
	case "call_webhook":
		return e.callWebhook(ctx, action, runCtx)
	case "create_draft":
		return e.createDraft(ctx, automation, action, runCtx)
	default:
		// Unknown action types are a hard failure, not a silent skip.
		return ActionResult{
			Action:  action.Type,
			Success: false,
			Error:   fmt.Sprintf("unknown action type: %s", action.Type),
		}
	}
}

func (e *Engine) generateContent(ctx context.Context, automation *models.Automation, action ActionSpec, runCtx *actionContext) ActionResult {
	var params generateContentParams
	if err := unmarshalParams(action.Params, &params); err != nil {
		return ActionResult{Action: action.Type, Success: false, Error: err.Error()}
	}
	if params.Topic == "" {
		return ActionResult{Action: action.Type, Success: false, Error: "generate_content requires a topic"}
	}

	brandVoice := ""
	if product, err := e.store.GetProduct(ctx, automation.ProductID); err == nil {
		brandVoice = product.BrandVoice
	}

	body, err := e.generator.Generate(ctx, params.Topic, brandVoice, ai.PlatformConstraints{
		Platform:  params.Platform,
		MaxLength: params.MaxLength,
	})
	if err != nil {
		return ActionResult{Action: action.Type, Success: false, Error: err.Error()}
	}

	content := &models.Content{
		ID:        uuid.NewString(),
		ProductID: automation.ProductID,
		Topic:     params.Topic,
		Body:      body,
		Status:    "draft",
		Source:    "generated",
	}
	if err := e.store.CreateContent(ctx, content); err != nil {
		return ActionResult{Action: action.Type, Success: false, Error: err.Error()}
	}

	runCtx.lastContentID = content.ID
	return ActionResult{Action: action.Type, Success: true, Result: map[string]string{"contentId": content.ID}}
}

// publishContent creates one Publication per target channel and either
// enqueues the job immediately or schedules it for the requested time.
func (e *Engine) publishContent(ctx context.Context, action ActionSpec, runCtx *actionContext) ActionResult {
	var params publishContentParams
	if err := unmarshalParams(action.Params, &params); err != nil {
		return ActionResult{Action: action.Type, Success: false, Error: err.Error()}
	}

	contentID := params.ContentID
	if contentID == "" {
		contentID = runCtx.lastContentID
	}
	if contentID == "" {
		return ActionResult{Action: action.Type, Success: false, Error: "publish_content requires a contentId or a preceding content action"}
	}
	if len(params.ChannelIDs) == 0 {
		return ActionResult{Action: action.Type, Success: false, Error: "publish_content requires at least one channelId"}
	}

	content, err := e.store.GetContent(ctx, contentID)
	if err != nil {
		return ActionResult{Action: action.Type, Success: false, Error: fmt.Sprintf("content %s not found: %v", contentID, err)}
	}

	var publicationIDs []string
	for _, channelID := range params.ChannelIDs {
		if _, err := e.store.GetChannel(ctx, channelID); err != nil {
			return ActionResult{Action: action.Type, Success: false, Error: fmt.Sprintf("channel %s not found: %v", channelID, err)}
		}

		publication := &models.Publication{
			ID:           uuid.NewString(),
			ContentID:    contentID,
			ChannelID:    channelID,
			Status:       models.PublicationStatusScheduled,
			ScheduledFor: params.ScheduleAt,
		}
		if err := e.store.CreatePublication(ctx, publication); err != nil {
			return ActionResult{Action: action.Type, Success: false, Error: err.Error()}
		}

		job := queue.PublishJob{
			ContentID:     contentID,
			ChannelID:     channelID,
			PublicationID: publication.ID,
			Content:       content.Body,
			MediaURLs:     params.MediaURLs,
			Priority:      params.Priority,
		}

		var jobID string
		if params.ScheduleAt != nil {
			jobID, err = e.queue.Schedule(job, *params.ScheduleAt)
			if err != nil {
				return ActionResult{Action: action.Type, Success: false, Error: err.Error()}
			}
		} else {
			jobID = e.queue.Add(job)
		}

		if err := e.store.PatchPublication(ctx, publication.ID, map[string]interface{}{"job_id": jobID}); err != nil {
			return ActionResult{Action: action.Type, Success: false, Error: err.Error()}
		}
		publicationIDs = append(publicationIDs, publication.ID)
	}

	return ActionResult{Action: action.Type, Success: true, Result: map[string]interface{}{"publicationIds": publicationIDs}}
}

// sendNotification is fire-and-forget; a delivery failure only fails the
// automation when the action is marked required.
func (e *Engine) sendNotification(ctx context.Context, action ActionSpec, runCtx *actionContext) ActionResult {
	var params notificationParams
	if err := unmarshalParams(action.Params, &params); err != nil {
		return ActionResult{Action: action.Type, Success: false, Error: err.Error()}
	}
	if params.URL == "" {
		return ActionResult{Action: action.Type, Success: false, Error: "send_notification requires a url"}
	}

	body := map[string]interface{}{
		"message":   params.Message,
		"eventId":   runCtx.event.ID,
		"eventType": runCtx.event.EventType,
	}
	if err := e.postJSON(ctx, "POST", params.URL, body); err != nil {
		return ActionResult{Action: action.Type, Success: false, Error: err.Error()}
	}
	return ActionResult{Action: action.Type, Success: true}
}

func (e *Engine) callWebhook(ctx context.Context, action ActionSpec, runCtx *actionContext) ActionResult {
	var params callWebhookParams
	if err := unmarshalParams(action.Params, &params); err != nil {
		return ActionResult{Action: action.Type, Success: false, Error: err.Error()}
	}
	if params.URL == "" {
		return ActionResult{Action: action.Type, Success: false, Error: "call_webhook requires a url"}
	}

	method := params.Method
	if method == "" {
		method = "POST"
	}
	payload := params.Payload
	if payload == nil {
		payload = runCtx.payload
	}
	if err := e.postJSON(ctx, method, params.URL, payload); err != nil {
		return ActionResult{Action: action.Type, Success: false, Error: err.Error()}
	}
	return ActionResult{Action: action.Type, Success: true}
}

// createDraft persists a content record directly, no AI call involved.
func (e *Engine) createDraft(ctx context.Context, automation *models.Automation, action ActionSpec, runCtx *actionContext) ActionResult {
	var params createDraftParams
	if err := unmarshalParams(action.Params, &params); err != nil {
		return ActionResult{Action: action.Type, Success: false, Error: err.Error()}
	}
	if params.Body == "" {
		return ActionResult{Action: action.Type, Success: false, Error: "create_draft requires a body"}
	}

	content := &models.Content{
		ID:        uuid.NewString(),
		ProductID: automation.ProductID,
		Topic:     params.Topic,
		Body:      params.Body,
		Status:    "draft",
		Source:    "manual",
	}
	if err := e.store.CreateContent(ctx, content); err != nil {
		return ActionResult{Action: action.Type, Success: false, Error: err.Error()}
	}

	runCtx.lastContentID = content.ID
	return ActionResult{Action: action.Type, Success: true, Result: map[string]string{"contentId": content.ID}}
}

func (e *Engine) postJSON(ctx context.Context, method, url string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := newRequest(ctx, method, url, data)
	if err != nil {
		return err
	}
	resp, err := e.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s returned %s", method, url, resp.Status)
	}
	return nil
}

func newRequest(ctx context.Context, method, url string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func unmarshalParams(raw json.RawMessage, out interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("invalid action params: %v", err)
	}
	return nil
}
