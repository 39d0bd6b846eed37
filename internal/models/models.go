package models

import (
	"time"
)

// Publication statuses
const (
	PublicationStatusScheduled  = "scheduled"
	PublicationStatusPublishing = "publishing"
	PublicationStatusPublished  = "published"
	PublicationStatusFailed     = "failed"
)

// Channel statuses
const (
	ChannelStatusActive   = "active"
	ChannelStatusInactive = "inactive"
	ChannelStatusError    = "error"
)

// AutomationLog statuses
const (
	LogStatusSuccess = "success"
	LogStatusFailed  = "failed"
)

// Product is the owning entity for events, automations and channels.
type Product struct {
	ID            string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name          string    `gorm:"type:varchar(255);not null" json:"name"`
	WebhookSecret string    `gorm:"type:varchar(255)" json:"-"`
	BrandVoice    string    `gorm:"type:text" json:"brand_voice"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// Event is an immutable record of an inbound webhook payload
type Event struct {
	ID                   string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ProductID            string     `gorm:"index;type:varchar(64);not null" json:"product_id"`
	EventType            string     `gorm:"type:varchar(100);index" json:"event_type"`
	Payload              string     `gorm:"type:text" json:"payload"` // JSON as received
	Processed            bool       `gorm:"default:false;index" json:"processed"`
	ProcessedAt          *time.Time `json:"processed_at"`
	AutomationsTriggered string     `gorm:"type:text" json:"automations_triggered"` // JSON array of automation ids
	Result               string     `gorm:"type:text" json:"result"`                // JSON run summary
	CreatedAt            time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (Event) TableName() string {
	return "events"
}

// Automation is a stored trigger/condition/action rule
type Automation struct {
	ID              string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ProductID       string     `gorm:"index;type:varchar(64);not null" json:"product_id"`
	Name            string     `gorm:"type:varchar(255);not null" json:"name"`
	Enabled         bool       `gorm:"default:true" json:"enabled"`
	TriggerType     string     `gorm:"type:varchar(50);not null" json:"trigger_type"` // webhook, event
	TriggerConfig   string     `gorm:"type:text" json:"trigger_config"`               // JSON: {"eventType": "..."}
	Conditions      string     `gorm:"type:text" json:"conditions"`                   // JSON rule tree
	Actions         string     `gorm:"type:text" json:"actions"`                      // JSON ordered action list
	TriggerCount    int64      `gorm:"default:0" json:"trigger_count"`
	LastTriggeredAt *time.Time `json:"last_triggered_at"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Automation) TableName() string {
	return "automations"
}

// AutomationLog records one automation execution attempt. Append-only.
type AutomationLog struct {
	ID              string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	AutomationID    string     `gorm:"index;type:varchar(64);not null" json:"automation_id"`
	EventID         string     `gorm:"index;type:varchar(64)" json:"event_id"`
	Status          string     `gorm:"type:varchar(20);index" json:"status"` // success, failed
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at"`
	ActionsExecuted string     `gorm:"type:text" json:"actions_executed"` // JSON array of per-action results
	ErrorMessage    string     `gorm:"type:text" json:"error_message"`
	TriggerData     string     `gorm:"type:text" json:"trigger_data"` // JSON payload snapshot
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (AutomationLog) TableName() string {
	return "automation_logs"
}

// Content is a publishable piece of content, AI-generated or a manual draft
type Content struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ProductID string    `gorm:"index;type:varchar(64);not null" json:"product_id"`
	Topic     string    `gorm:"type:varchar(255)" json:"topic"`
	Body      string    `gorm:"type:text" json:"body"`
	Status    string    `gorm:"type:varchar(20);default:'draft'" json:"status"`
	Source    string    `gorm:"type:varchar(20)" json:"source"` // generated, manual
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Content) TableName() string {
	return "contents"
}

// Channel binds a product to one platform account
type Channel struct {
	ID          string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ProductID   string     `gorm:"index;type:varchar(64);not null" json:"product_id"`
	Platform    string     `gorm:"type:varchar(50);not null" json:"platform"`
	Name        string     `gorm:"type:varchar(255)" json:"name"`
	Credentials string     `gorm:"type:text" json:"-"` // opaque JSON credential bag
	Status      string     `gorm:"type:varchar(20);default:'active'" json:"status"`
	LastUsedAt  *time.Time `json:"last_used_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Channel) TableName() string {
	return "channels"
}

// Publication tracks one attempt to place one piece of content on one channel
type Publication struct {
	ID             string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ContentID      string     `gorm:"index;type:varchar(64);not null" json:"content_id"`
	ChannelID      string     `gorm:"index;type:varchar(64);not null" json:"channel_id"`
	JobID          string     `gorm:"index;type:varchar(64)" json:"job_id"`
	Status         string     `gorm:"type:varchar(20);index;default:'scheduled'" json:"status"`
	ScheduledFor   *time.Time `json:"scheduled_for"`
	PublishedAt    *time.Time `json:"published_at"`
	PlatformPostID string     `gorm:"type:varchar(255)" json:"platform_post_id"`
	PlatformURL    string     `gorm:"type:text" json:"platform_url"`
	ErrorCode      string     `gorm:"type:varchar(100)" json:"error_code"`
	ErrorMessage   string     `gorm:"type:text" json:"error_message"`
	RetryCount     int        `gorm:"default:0" json:"retry_count"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Publication) TableName() string {
	return "publications"
}
