// Package engine ingests events, matches them against enabled
// automations, and executes each matched automation's action pipeline
// sequentially. One AutomationLog is written per execution attempt and
// the event is marked processed exactly once.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"social-gateway/internal/ai"
	"social-gateway/internal/condition"
	"social-gateway/internal/models"
	"social-gateway/internal/queue"
	"social-gateway/internal/store"

	"github.com/google/uuid"
)

// Notifier receives automation execution summaries for live dashboards.
type Notifier interface {
	NotifyAutomationRun(l models.AutomationLog)
}

type Engine struct {
	store     store.Store
	queue     *queue.Queue
	generator ai.Generator
	notifier  Notifier
	http      *http.Client
}

func New(s store.Store, q *queue.Queue, g ai.Generator, n Notifier) *Engine {
	return &Engine{
		store:     s,
		queue:     q,
		generator: g,
		notifier:  n,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

// runSummary is persisted onto the event's result column.
type runSummary struct {
	Matched     int      `json:"matched"`
	Succeeded   int      `json:"succeeded"`
	Failed      int      `json:"failed"`
	Automations []string `json:"automations"`
	Reprocessed bool     `json:"reprocessed,omitempty"`
}

// HandleEvent runs the normal processing path. An event that is already
// marked processed is never re-triggered through this path.
func (e *Engine) HandleEvent(ctx context.Context, eventID string) error {
	event, err := e.store.GetEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("load event: %w", err)
	}
	if event.Processed {
		log.Printf("engine: event %s already processed, skipping", eventID)
		return nil
	}
	return e.process(ctx, event, false)
}

// Reprocess re-runs the pipeline for an event regardless of its processed
// flag. Results are explicitly tagged as reprocessed.
func (e *Engine) Reprocess(ctx context.Context, eventID string) error {
	event, err := e.store.GetEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("load event: %w", err)
	}
	return e.process(ctx, event, true)
}

func (e *Engine) process(ctx context.Context, event *models.Event, reprocess bool) error {
	automations, err := e.store.ListEnabledAutomations(ctx, event.ProductID, []string{"webhook", "event"})
	if err != nil {
		return fmt.Errorf("load automations: %w", err)
	}

	payload := parsePayload(event.Payload)
	summary := runSummary{Reprocessed: reprocess}

	for i := range automations {
		automation := &automations[i]

		if !matchesTrigger(automation, event.EventType) {
			continue
		}
		if !condition.EvaluateJSON(automation.Conditions, payload) {
			continue
		}

		summary.Matched++
		summary.Automations = append(summary.Automations, automation.ID)

		// The counter moves once per match, before the pipeline and
		// regardless of its outcome.
		if err := e.store.MarkTriggered(ctx, automation.ID, time.Now().UTC()); err != nil {
			log.Printf("engine: failed to mark automation %s triggered: %v", automation.ID, err)
		}

		logEntry := e.runActions(ctx, automation, event, payload, reprocess)
		if logEntry.Status == models.LogStatusSuccess {
			summary.Succeeded++
		} else {
			summary.Failed++
		}

		if err := e.store.CreateAutomationLog(ctx, logEntry); err != nil {
			log.Printf("engine: failed to persist automation log for %s: %v", automation.ID, err)
		}
		if e.notifier != nil {
			e.notifier.NotifyAutomationRun(*logEntry)
		}
	}

	return e.markProcessed(ctx, event, summary)
}

// runActions executes one automation's ordered action list. A failed
// required action aborts the remaining actions for this automation only;
// failures of non-required actions are recorded and execution continues.
func (e *Engine) runActions(ctx context.Context, automation *models.Automation, event *models.Event, payload map[string]interface{}, reprocess bool) *models.AutomationLog {
	startedAt := time.Now().UTC()
	logEntry := &models.AutomationLog{
		ID:           uuid.NewString(),
		AutomationID: automation.ID,
		EventID:      event.ID,
		StartedAt:    startedAt,
		TriggerData:  event.Payload,
	}

	actions, err := parseActions(automation.Actions)
	runCtx := &actionContext{
		event:       event,
		payload:     payload,
		reprocessed: reprocess,
	}

	var results []ActionResult
	status := models.LogStatusSuccess
	errorMessage := ""

	if err != nil {
		status = models.LogStatusFailed
		errorMessage = fmt.Sprintf("invalid action list: %v", err)
	} else {
		for _, action := range actions {
			result := e.executeAction(ctx, automation, action, runCtx)
			results = append(results, result)

			if !result.Success {
				if action.Required {
					status = models.LogStatusFailed
					errorMessage = fmt.Sprintf("required action %q failed: %s", action.Type, result.Error)
					break
				}
				log.Printf("engine: automation %s action %s failed (non-required), continuing: %s",
					automation.ID, action.Type, result.Error)
			}
		}
	}

	completedAt := time.Now().UTC()
	logEntry.CompletedAt = &completedAt
	logEntry.Status = status
	logEntry.ErrorMessage = errorMessage
	if encoded, err := json.Marshal(results); err == nil {
		logEntry.ActionsExecuted = string(encoded)
	}
	return logEntry
}

func (e *Engine) markProcessed(ctx context.Context, event *models.Event, summary runSummary) error {
	triggered, _ := json.Marshal(summary.Automations)
	if summary.Automations == nil {
		triggered = []byte("[]")
	}
	result, _ := json.Marshal(summary)

	now := time.Now().UTC()
	fields := map[string]interface{}{
		"processed":             true,
		"processed_at":          now,
		"automations_triggered": string(triggered),
		"result":                string(result),
	}
	if err := e.store.PatchEvent(ctx, event.ID, fields); err != nil {
		return fmt.Errorf("mark event processed: %w", err)
	}
	return nil
}

// matchesTrigger checks the automation's event-type filter. An empty
// filter matches all events of the trigger type.
func matchesTrigger(automation *models.Automation, eventType string) bool {
	if automation.TriggerConfig == "" {
		return true
	}
	var cfg struct {
		EventType string `json:"eventType"`
	}
	if err := json.Unmarshal([]byte(automation.TriggerConfig), &cfg); err != nil {
		return true
	}
	return cfg.EventType == "" || cfg.EventType == eventType
}

func parsePayload(raw string) map[string]interface{} {
	var payload map[string]interface{}
	if raw == "" {
		return map[string]interface{}{}
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return map[string]interface{}{}
	}
	return payload
}
