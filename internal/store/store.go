// Package store is the persistence port for the core components. Handlers,
// the automation engine and the queue processor all depend on the Store
// interface rather than a database handle, so tests can inject fakes or an
// in-memory sqlite instance.
package store

import (
	"context"
	"time"

	"social-gateway/internal/models"
)

type Store interface {
	// Products
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error

	// Events
	CreateEvent(ctx context.Context, e *models.Event) error
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	ListEvents(ctx context.Context, productID string, limit int) ([]models.Event, error)
	PatchEvent(ctx context.Context, id string, fields map[string]interface{}) error

	// Automations
	GetAutomation(ctx context.Context, id string) (*models.Automation, error)
	ListEnabledAutomations(ctx context.Context, productID string, triggerTypes []string) ([]models.Automation, error)
	ListAutomations(ctx context.Context, productID string) ([]models.Automation, error)
	CreateAutomation(ctx context.Context, a *models.Automation) error
	PatchAutomation(ctx context.Context, id string, fields map[string]interface{}) error
	DeleteAutomation(ctx context.Context, id string) error
	// MarkTriggered atomically increments the trigger counter and stamps
	// the last-triggered time.
	MarkTriggered(ctx context.Context, id string, at time.Time) error

	// Automation logs
	CreateAutomationLog(ctx context.Context, l *models.AutomationLog) error
	ListAutomationLogs(ctx context.Context, automationID string, limit int) ([]models.AutomationLog, error)

	// Content
	CreateContent(ctx context.Context, c *models.Content) error
	GetContent(ctx context.Context, id string) (*models.Content, error)

	// Channels
	GetChannel(ctx context.Context, id string) (*models.Channel, error)
	ListChannels(ctx context.Context, productID string) ([]models.Channel, error)
	CreateChannel(ctx context.Context, ch *models.Channel) error
	PatchChannel(ctx context.Context, id string, fields map[string]interface{}) error
	DeleteChannel(ctx context.Context, id string) error

	// Publications
	CreatePublication(ctx context.Context, p *models.Publication) error
	GetPublication(ctx context.Context, id string) (*models.Publication, error)
	ListPublications(ctx context.Context, contentID string) ([]models.Publication, error)
	PatchPublication(ctx context.Context, id string, fields map[string]interface{}) error
}
