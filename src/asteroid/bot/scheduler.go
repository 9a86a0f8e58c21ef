package bot

import (
	"log"

	"github.com/robfig/cron/v3"

	"github.com/asteroid-bot/asteroid/src/asteroid/data"
)

func (b *Bot) startScheduler() error {
	b.cron = cron.New()

	_, err := b.cron.AddFunc("@hourly", func() {
		if err := data.RefreshSettings(b.db); err != nil {
			log.Printf("refresh settings: %v", err)
		}
	})
	if err != nil {
		return err
	}

	_, err = b.cron.AddFunc("@every 10m", func() {
		b.rateLimiter.Cleanup()
	})
	if err != nil {
		return err
	}

	b.cron.Start()
	return nil
}

func (b *Bot) stopScheduler() {
	if b.cron != nil {
		<-b.cron.Stop().Done()
	}
}
