package main

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// work runs the periodic jobs: webhook fan-out and delivery retries, and the
// offer expiry sweep. It returns when ctx is cancelled.
func (app *application) work(ctx context.Context) error {
	c := cron.New()

	if _, err := c.AddFunc(app.Config.Webhook.Schedule, func() {
		app.Dispatcher.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("schedule webhook dispatch %q: %w", app.Config.Webhook.Schedule, err)
	}

	if _, err := c.AddFunc(app.Config.Offer.ExpirySchedule, func() {
		n, err := app.Workflow.ExpireOffers(ctx, time.Now().UTC())
		if err != nil {
			app.Logger.Error("expire_offers: sweep failed", zap.Error(err))
			return
		}
		if n > 0 {
			app.Logger.Info("expire_offers: expired", zap.Int("count", n))
		}
	}); err != nil {
		return fmt.Errorf("schedule offer expiry %q: %w", app.Config.Offer.ExpirySchedule, err)
	}

	c.Start()
	app.Logger.Info("worker started",
		zap.String("webhook_schedule", app.Config.Webhook.Schedule),
		zap.String("expiry_schedule", app.Config.Offer.ExpirySchedule),
	)

	go app.Dispatcher.Run(ctx)
	app.Dispatcher.Kick()

	<-ctx.Done()
	<-c.Stop().Done()
	app.Logger.Info("worker stopped")
	return nil
}
