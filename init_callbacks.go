package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/akinalp/scaffoldr/config"
	"github.com/akinalp/scaffoldr/pkg/scaffold"
	"github.com/akinalp/scaffoldr/services"
)

const templateSyncTimeout = 30 * time.Second

// initTemplateWatcher re-syncs the template catalog whenever the on-disk
// store changes. It returns nil when watching is off or the store is the
// embedded one, which cannot change at runtime.
func initTemplateWatcher(
	cfg *config.Config,
	store *scaffold.Store,
	templates services.TemplateService,
	log *zap.Logger,
) (*scaffold.Watcher, error) {
	if !cfg.Templates.Watch || store.Dir() == "" {
		return nil, nil
	}

	watchLog := log.Named("template-watch")
	w, err := scaffold.Watch(store.Dir(), watchLog, func() {
		ctx, cancel := context.WithTimeout(context.Background(), templateSyncTimeout)
		defer cancel()

		n, err := templates.Sync(ctx)
		if err != nil {
			watchLog.Error("template resync failed", zap.Error(err))
			return
		}
		watchLog.Info("templates resynced", zap.Int("count", n))
	})
	if err != nil {
		return nil, err
	}

	watchLog.Info("watching template directory", zap.String("dir", store.Dir()))
	return w, nil
}
