package store

import (
	"context"
	"time"

	"social-gateway/internal/models"

	"gorm.io/gorm"
)

// gormStore implements Store on top of an injected *gorm.DB.
type gormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// --- Products ---

func (s *gormStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *gormStore) CreateProduct(ctx context.Context, p *models.Product) error {
	return s.db.WithContext(ctx).Create(p).Error
}

// --- Events ---

func (s *gormStore) CreateEvent(ctx context.Context, e *models.Event) error {
	return s.db.WithContext(ctx).Create(e).Error
}

func (s *gormStore) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var e models.Event
	if err := s.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *gormStore) ListEvents(ctx context.Context, productID string, limit int) ([]models.Event, error) {
	var events []models.Event
	err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (s *gormStore) PatchEvent(ctx context.Context, id string, fields map[string]interface{}) error {
	return s.db.WithContext(ctx).Model(&models.Event{}).Where("id = ?", id).Updates(fields).Error
}

// --- Automations ---

func (s *gormStore) GetAutomation(ctx context.Context, id string) (*models.Automation, error) {
	var a models.Automation
	if err := s.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *gormStore) ListEnabledAutomations(ctx context.Context, productID string, triggerTypes []string) ([]models.Automation, error) {
	var automations []models.Automation
	err := s.db.WithContext(ctx).
		Where("product_id = ? AND enabled = ? AND trigger_type IN ?", productID, true, triggerTypes).
		Order("created_at ASC").
		Find(&automations).Error
	return automations, err
}

func (s *gormStore) ListAutomations(ctx context.Context, productID string) ([]models.Automation, error) {
	var automations []models.Automation
	err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&automations).Error
	return automations, err
}

func (s *gormStore) CreateAutomation(ctx context.Context, a *models.Automation) error {
	return s.db.WithContext(ctx).Create(a).Error
}

func (s *gormStore) PatchAutomation(ctx context.Context, id string, fields map[string]interface{}) error {
	return s.db.WithContext(ctx).Model(&models.Automation{}).Where("id = ?", id).Updates(fields).Error
}

func (s *gormStore) DeleteAutomation(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&models.Automation{}, "id = ?", id).Error
}

func (s *gormStore) MarkTriggered(ctx context.Context, id string, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.Automation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"trigger_count":     gorm.Expr("trigger_count + 1"),
			"last_triggered_at": at,
		}).Error
}

// --- Automation logs ---

func (s *gormStore) CreateAutomationLog(ctx context.Context, l *models.AutomationLog) error {
	return s.db.WithContext(ctx).Create(l).Error
}

func (s *gormStore) ListAutomationLogs(ctx context.Context, automationID string, limit int) ([]models.AutomationLog, error) {
	var logs []models.AutomationLog
	q := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if automationID != "" {
		q = q.Where("automation_id = ?", automationID)
	}
	err := q.Find(&logs).Error
	return logs, err
}

// --- Content ---

func (s *gormStore) CreateContent(ctx context.Context, c *models.Content) error {
	return s.db.WithContext(ctx).Create(c).Error
}

func (s *gormStore) GetContent(ctx context.Context, id string) (*models.Content, error) {
	var c models.Content
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// --- Channels ---

func (s *gormStore) GetChannel(ctx context.Context, id string) (*models.Channel, error) {
	var ch models.Channel
	if err := s.db.WithContext(ctx).First(&ch, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ch, nil
}

func (s *gormStore) ListChannels(ctx context.Context, productID string) ([]models.Channel, error) {
	var channels []models.Channel
	err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&channels).Error
	return channels, err
}

func (s *gormStore) CreateChannel(ctx context.Context, ch *models.Channel) error {
	return s.db.WithContext(ctx).Create(ch).Error
}

func (s *gormStore) PatchChannel(ctx context.Context, id string, fields map[string]interface{}) error {
	return s.db.WithContext(ctx).Model(&models.Channel{}).Where("id = ?", id).Updates(fields).Error
}

func (s *gormStore) DeleteChannel(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&models.Channel{}, "id = ?", id).Error
}

// --- Publications ---

func (s *gormStore) CreatePublication(ctx context.Context, p *models.Publication) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *gormStore) GetPublication(ctx context.Context, id string) (*models.Publication, error) {
	var p models.Publication
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *gormStore) ListPublications(ctx context.Context, contentID string) ([]models.Publication, error) {
	var pubs []models.Publication
	err := s.db.WithContext(ctx).
		Where("content_id = ?", contentID).
		Order("created_at DESC").
		Find(&pubs).Error
	return pubs, err
}

func (s *gormStore) PatchPublication(ctx context.Context, id string, fields map[string]interface{}) error {
	return s.db.WithContext(ctx).Model(&models.Publication{}).Where("id = ?", id).Updates(fields).Error
}
