package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"motion-monitor/be/models"
	"motion-monitor/be/realtime"

	"go.uber.org/zap"
)

// EventRecorder persists written records. HistoryService implements it.
type EventRecorder interface {
	Record(ctx context.Context, event *models.DetectionEvent) error
}

// StatusPublisher writes detection results into the status record on behalf
// of the detector. A report is written when the motion/humans pair changed or
// when the last write is older than the interval; anything else is dropped.
type StatusPublisher struct {
	writer   realtime.Writer
	path     string
	interval time.Duration
	recorder EventRecorder
	logger   *zap.Logger
	now      func() time.Time

	mu        sync.Mutex
	written   bool
	lastState [2]bool
	lastWrite time.Time
}

func NewStatusPublisher(writer realtime.Writer, path string, interval time.Duration, recorder EventRecorder, logger *zap.Logger) *StatusPublisher {
	return &StatusPublisher{
		writer:   writer,
		path:     path,
		interval: interval,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// Report returns true when the record was written.
func (p *StatusPublisher) Report(ctx context.Context, motion, humans bool, source string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	state := [2]bool{motion, humans}
	if p.written && state == p.lastState && now.Sub(p.lastWrite) <= p.interval {
		return false, nil
	}

	ts := now.UnixMilli()
	status := models.DetectionStatus{
		MotionDetected: motion,
		HumansPresent:  humans,
		Timestamp:      &ts,
	}
	value, err := json.Marshal(status)
	if err != nil {
		return false, fmt.Errorf("failed to encode status: %w", err)
	}
	if err := p.writer.Set(ctx, p.path, value); err != nil {
		return false, err
	}

	p.written = true
	p.lastState = state
	p.lastWrite = now

	p.logger.Info("Status published",
		zap.Bool("motion_detected", motion),
		zap.Bool("humans_present", humans),
		zap.String("source", source))

	if p.recorder != nil {
		event := &models.DetectionEvent{
			MotionDetected: motion,
			HumansPresent:  humans,
			Timestamp:      ts,
			Source:         source,
		}
		if err := p.recorder.Record(ctx, event); err != nil {
			p.logger.Warn("Failed to record detection event", zap.Error(err))
		}
	}
	return true, nil
}
