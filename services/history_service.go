package services

import (
	"context"
	"errors"
	"fmt"

	"motion-monitor/be/models"

	"gorm.io/gorm"
)

var ErrHistoryDisabled = errors.New("detection history is disabled")

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

type HistoryService struct {
	db *gorm.DB
}

func NewHistoryService(db *gorm.DB) *HistoryService {
	return &HistoryService{db: db}
}

func (s *HistoryService) Record(ctx context.Context, event *models.DetectionEvent) error {
	if s == nil || s.db == nil {
		return ErrHistoryDisabled
	}
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to record detection event: %w", err)
	}
	return nil
}

// Recent returns the newest events first. limit is clamped to
// [1, MaxHistoryLimit]; zero or negative means DefaultHistoryLimit.
func (s *HistoryService) Recent(ctx context.Context, limit int) ([]models.DetectionEvent, error) {
	if s == nil || s.db == nil {
		return nil, ErrHistoryDisabled
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	var events []models.DetectionEvent
	if err := s.db.WithContext(ctx).Order("timestamp desc").Limit(limit).Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch detection events: %w", err)
	}
	return events, nil
}
