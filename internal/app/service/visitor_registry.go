package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gamexpress/storefront/pkg/logger"
)

// VisitorNamespace is the state namespace of a gateway visitor.
func VisitorNamespace(visitorID string) string {
	return "visitor:" + visitorID
}

type visitor struct {
	sf       *Storefront
	cancel   context.CancelFunc
	lastSeen time.Time
}

// VisitorRegistry keeps one Storefront per gateway visitor. A visitor's
// session is restored in the background on first use, so guards have to
// wait for Auth.WaitReady.
type VisitorRegistry struct {
	deps StorefrontDeps
	idle time.Duration
	log  *logger.Logger
	now  func() time.Time

	mu       sync.Mutex
	visitors map[string]*visitor
}

func NewVisitorRegistry(deps StorefrontDeps, idle time.Duration) *VisitorRegistry {
	log := deps.Logger
	if log == nil {
		log = logger.Get()
	}
	return &VisitorRegistry{
		deps:     deps,
		idle:     idle,
		log:      log,
		now:      time.Now,
		visitors: map[string]*visitor{},
	}
}

// Storefront returns the visitor's bundle, creating and starting it when
// the visitor is new to this process.
func (r *VisitorRegistry) Storefront(visitorID string) (*Storefront, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.visitors[visitorID]; ok {
		v.lastSeen = r.now()
		return v.sf, nil
	}

	sf, err := NewStorefront(VisitorNamespace(visitorID), r.deps)
	if err != nil {
		return nil, fmt.Errorf("failed to create storefront for visitor: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.visitors[visitorID] = &visitor{sf: sf, cancel: cancel, lastSeen: r.now()}

	go func() {
		if err := sf.Start(ctx); err != nil {
			r.log.Warn("Visitor cart could not be loaded", logger.Fields{
				"visitor_id": visitorID,
				"error":      err.Error(),
			})
		}
	}()

	r.log.Debug("Visitor session created", logger.Fields{
		"visitor_id": visitorID,
	})
	return sf, nil
}

// Sweep drops visitors idle for longer than the idle timeout and returns how
// many were dropped. Their stored state is kept.
func (r *VisitorRegistry) Sweep() int {
	if r.idle <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idle)

	r.mu.Lock()
	var stale []*visitor
	for id, v := range r.visitors {
		if v.lastSeen.Before(cutoff) {
			stale = append(stale, v)
			delete(r.visitors, id)
		}
	}
	r.mu.Unlock()

	for _, v := range stale {
		v.cancel()
		v.sf.Close()
	}
	if len(stale) > 0 {
		r.log.Info("Idle visitors dropped", logger.Fields{
			"count": len(stale),
		})
	}
	return len(stale)
}

func (r *VisitorRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.visitors)
}

// Close drops every visitor.
func (r *VisitorRegistry) Close() {
	r.mu.Lock()
	visitors := r.visitors
	r.visitors = map[string]*visitor{}
	r.mu.Unlock()

	for _, v := range visitors {
		v.cancel()
		v.sf.Close()
	}
}
