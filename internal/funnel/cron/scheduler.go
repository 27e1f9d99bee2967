package cronjob

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/packsmith-hq/magic-cards-backend/internal/records"
)

type Scheduler struct {
	cache *records.CachedStore
	c     *cron.Cron
}

func NewScheduler(cache *records.CachedStore) *Scheduler {
	return &Scheduler{cache: cache}
}

// Start initializes cron tasks
func (s *Scheduler) Start() {
	s.c = cron.New(cron.WithSeconds())

	//  (12:00 AM)
	_, err := s.c.AddFunc("0 0 0 * * *", func() {
		s.runNightlyWarm()
	})

	if err != nil {
		log.Printf("Failed to create cron job: %v", err)
		return
	}

	log.Println("Cron scheduler started (warming project cache nightly at 12:00AM)")
	s.c.Start()
}

func (s *Scheduler) Stop() {
	if s.c != nil {
		s.c.Stop()
	}
}

func (s *Scheduler) runNightlyWarm() {
	log.Println("Nightly cache warm started...")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.cache.WarmProjects(ctx); err != nil {
		log.Printf("Cache warm failed: %v", err)
		return
	}

	log.Println("Nightly cache warm finished")
}
