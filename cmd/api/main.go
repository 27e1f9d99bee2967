package main

import (
	"context"
	"log"

	"github.com/packsmith-hq/magic-cards-backend/config"
	"github.com/packsmith-hq/magic-cards-backend/internal/assets"
	"github.com/packsmith-hq/magic-cards-backend/internal/bootstrap"
	cronjob "github.com/packsmith-hq/magic-cards-backend/internal/funnel/cron"
	"github.com/packsmith-hq/magic-cards-backend/internal/funnel/service"
	"github.com/packsmith-hq/magic-cards-backend/internal/records"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	bootstrap.SetGinMode(cfg.App.Environment)

	var store records.Store = records.NewClient(records.ClientOptions{
		BaseURL:       cfg.Records.BaseURL,
		APIKey:        cfg.Records.APIKey,
		BaseID:        cfg.Records.BaseID,
		ProjectsTable: cfg.Records.ProjectsTable,
		ContactsTable: cfg.Records.ContactsTable,
		RatePerSec:    cfg.Records.RatePerSec,
	})

	deps := bootstrap.RouterDeps{
		ServiceName: "magic-cards-backend",
		Version:     cfg.App.Version,
		APIKey:      cfg.App.APIKey,
		CORSOrigins: cfg.App.CORSOrigins,
	}

	if cfg.Redis.Addr != "" {
		client, err := bootstrap.OpenRedis(context.Background(), bootstrap.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer client.Close()

		cached := records.NewCachedStore(store, client, cfg.Redis.CacheTTL)
		store = cached
		deps.Cache = client

		scheduler := cronjob.NewScheduler(cached)
		scheduler.Start()
		defer scheduler.Stop()
	} else {
		log.Println("REDIS_ADDR not set, record cache disabled")
	}

	uploader := assets.NewUploader(cfg.Assets.BaseURL, cfg.Assets.APIKey, cfg.Assets.MaxUploadBytes)
	deps.Funnel = service.NewFunnelService(store, uploader)

	r := bootstrap.BuildRouter(deps)

	log.Printf("listening on :%s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
