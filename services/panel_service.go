package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"motion-monitor/be/models"
	"motion-monitor/be/realtime"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrPanelMounted   = errors.New("panel already mounted")
	ErrPanelUnmounted = errors.New("panel has been unmounted")
)

// Panel is one mounted status display. It owns a copy of the remote status
// record for its mounted lifetime and replaces it wholesale on every
// snapshot.
type Panel struct {
	ID string

	source realtime.Source
	path   string
	loc    *time.Location
	logger *zap.Logger

	mu        sync.RWMutex
	status    models.DetectionStatus
	mounted   bool
	unmounted bool
	sub       *realtime.Subscription
	updates   chan PanelView
	applied   uint64
}

func NewPanel(source realtime.Source, path string, loc *time.Location, logger *zap.Logger) *Panel {
	id := uuid.NewString()
	return &Panel{
		ID:      id,
		source:  source,
		path:    path,
		loc:     loc,
		logger:  logger.With(zap.String("panel_id", id), zap.String("path", path)),
		status:  models.DefaultDetectionStatus(),
		updates: make(chan PanelView, 1),
	}
}

// Mount establishes the panel's single subscription.
func (p *Panel) Mount(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.unmounted {
		return ErrPanelUnmounted
	}
	if p.mounted {
		return ErrPanelMounted
	}

	sub, err := p.source.Subscribe(ctx, p.path)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", p.path, err)
	}

	p.sub = sub
	p.mounted = true
	go p.consume(sub)

	p.logger.Debug("Panel mounted")
	return nil
}

// Unmount releases the subscription. No state change or rendered update
// happens once it returns.
func (p *Panel) Unmount() {
	p.mu.Lock()
	if p.unmounted {
		p.mu.Unlock()
		return
	}
	p.unmounted = true
	wasMounted := p.mounted
	p.mounted = false
	sub := p.sub
	p.sub = nil
	close(p.updates)
	p.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
	if wasMounted {
		p.logger.Debug("Panel unmounted")
	}
}

func (p *Panel) consume(sub *realtime.Subscription) {
	for snap := range sub.C {
		p.apply(snap)
	}
}

func (p *Panel) apply(snap realtime.Snapshot) {
	status := models.ParseSnapshot(snap.Value)

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.mounted {
		return
	}

	p.status = status
	p.applied++
	p.publish(RenderPanel(status, p.loc))
}

// publish keeps only the newest view for a slow reader. Callers hold p.mu,
// and apply is the only sender.
func (p *Panel) publish(view PanelView) {
	select {
	case p.updates <- view:
		return
	default:
	}
	select {
	case <-p.updates:
	default:
	}
	select {
	case p.updates <- view:
	default:
	}
}

func (p *Panel) Status() models.DetectionStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

func (p *Panel) View() PanelView {
	return RenderPanel(p.Status(), p.loc)
}

// Updates delivers a rendered view after each applied snapshot. It is closed
// by Unmount.
func (p *Panel) Updates() <-chan PanelView {
	return p.updates
}

// Applied reports how many snapshots have replaced the panel state.
func (p *Panel) Applied() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.applied
}

func (p *Panel) Mounted() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.mounted
}
