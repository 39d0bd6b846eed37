package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"social-gateway/internal/models"
	"social-gateway/internal/publisher"
	"social-gateway/internal/queue"
	"social-gateway/internal/store"

	"gorm.io/gorm"
)

// PublisherFactory builds an adapter from a platform id and credential
// bag. Tests substitute a fake; production uses publisher.New.
type PublisherFactory func(platform string, creds publisher.Credentials) (publisher.Publisher, error)

// NewPublishProcessor returns the queue processor that drives publisher
// adapters and persists outcomes onto Publication and Channel records. A
// returned error triggers the queue's retry policy; validation problems
// (missing channel, bad credentials, content the platform can never
// accept) are wrapped in queue.ErrPermanent and never retried.
func NewPublishProcessor(s store.Store, factory PublisherFactory) queue.Processor {
	return func(ctx context.Context, job queue.PublishJob) (interface{}, error) {
		channel, err := s.GetChannel(ctx, job.ChannelID)
		if err != nil {
			return nil, failPublication(ctx, s, job.PublicationID, "channel_not_found",
				fmt.Sprintf("channel %s not found: %v", job.ChannelID, err))
		}

		var creds publisher.Credentials
		if err := json.Unmarshal([]byte(channel.Credentials), &creds); err != nil {
			return nil, failPublication(ctx, s, job.PublicationID, "invalid_credentials",
				fmt.Sprintf("channel %s has an unreadable credential bag", channel.ID))
		}

		adapter, err := factory(channel.Platform, creds)
		if err != nil {
			return nil, failPublication(ctx, s, job.PublicationID, "invalid_credentials", err.Error())
		}

		if err := s.PatchPublication(ctx, job.PublicationID, map[string]interface{}{
			"status": models.PublicationStatusPublishing,
		}); err != nil {
			return nil, err
		}

		result := adapter.Publish(ctx, job.Content, &publisher.PublishOptions{MediaURLs: job.MediaURLs})
		now := time.Now().UTC()

		if !result.Success {
			// A permanent rejection is the content's fault, not the
			// channel's: no retry, no channel error state.
			if result.Permanent {
				return nil, failPublication(ctx, s, job.PublicationID, "content_rejected", result.Error)
			}
			patchErr := s.PatchPublication(ctx, job.PublicationID, map[string]interface{}{
				"status":        models.PublicationStatusFailed,
				"error_code":    "publish_failed",
				"error_message": result.Error,
				"retry_count":   gorm.Expr("retry_count + 1"),
			})
			if patchErr != nil {
				log.Printf("engine: failed to record publish failure on publication %s: %v", job.PublicationID, patchErr)
			}
			markChannelError(ctx, s, channel.ID)
			return nil, fmt.Errorf("%s", result.Error)
		}

		fields := map[string]interface{}{
			"status":           models.PublicationStatusPublished,
			"platform_post_id": result.PostID,
			"platform_url":     result.PostURL,
			"published_at":     now,
			"error_code":       "",
			"error_message":    "",
		}
		if err := s.PatchPublication(ctx, job.PublicationID, fields); err != nil {
			log.Printf("engine: publish succeeded but publication %s update failed: %v", job.PublicationID, err)
		}
		if err := s.PatchChannel(ctx, channel.ID, map[string]interface{}{
			"status":       models.ChannelStatusActive,
			"last_used_at": now,
		}); err != nil {
			log.Printf("engine: failed to stamp channel %s last use: %v", channel.ID, err)
		}

		return result, nil
	}
}

// failPublication records a non-retryable failure and returns it wrapped
// in queue.ErrPermanent so the job fails terminally on this attempt.
func failPublication(ctx context.Context, s store.Store, publicationID, code, message string) error {
	if err := s.PatchPublication(ctx, publicationID, map[string]interface{}{
		"status":        models.PublicationStatusFailed,
		"error_code":    code,
		"error_message": message,
	}); err != nil {
		log.Printf("engine: failed to mark publication %s failed: %v", publicationID, err)
	}
	return fmt.Errorf("%w: %s", queue.ErrPermanent, message)
}

func markChannelError(ctx context.Context, s store.Store, channelID string) {
	if err := s.PatchChannel(ctx, channelID, map[string]interface{}{
		"status": models.ChannelStatusError,
	}); err != nil {
		log.Printf("engine: failed to mark channel %s errored: %v", channelID, err)
	}
}
