package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/akinalp/scaffoldr/repository"
)

// SessionCleaner periodically deletes expired refresh-token sessions.
// Expired sessions are already rejected by RefreshToken; this only keeps
// the table from growing.
type SessionCleaner interface {
	// Start runs a sweep immediately and then every interval.
	Start()
	// Stop ends the loop and waits for it to exit. Safe to call twice.
	Stop()
}

type sessionCleaner struct {
	sessionRepo repository.SessionRepository
	interval    time.Duration
	log         *zap.Logger

	stopCh   chan struct{}
	done     chan struct{}
	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
}

// NewSessionCleaner creates the cleaner.
func NewSessionCleaner(sessionRepo repository.SessionRepository, interval time.Duration, log *zap.Logger) SessionCleaner {
	return &sessionCleaner{
		sessionRepo: sessionRepo,
		interval:    interval,
		log:         log,
		stopCh:      make(chan struct{}),
		done:        make(chan struct{}),
	}
}

func (c *sessionCleaner) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return
	}
	c.started = true

	c.log.Info("session cleaner started", zap.Duration("interval", c.interval))

	go func() {
		defer close(c.done)

		c.sweep()

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.sweep()
			case <-c.stopCh:
				return
			}
		}
	}()
}

func (c *sessionCleaner) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })

	c.mu.Lock()
	started := c.started
	c.mu.Unlock()

	if started {
		<-c.done
	}
}

func (c *sessionCleaner) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := c.sessionRepo.DeleteExpired(ctx)
	if err != nil {
		c.log.Error("failed to delete expired sessions", zap.Error(err))
		return
	}
	if n > 0 {
		c.log.Info("deleted expired sessions", zap.Int64("count", n))
	}
}
