package main

import (
	"github.com/rs/zerolog/log"

	"bookreview-backend/internal/infrastructure/queue"
	"bookreview-backend/pkg/container"
)

// asynqScheduler wraps queue.Scheduler with additional functionality
type asynqScheduler struct {
	*queue.Scheduler
}

// setupScheduler registers periodic author jobs and starts the scheduler
func setupScheduler(c *container.Container) *asynqScheduler {
	scheduler := queue.NewScheduler(container.RedisClientOpt(c.Config.Redis), queue.JobConfig{
		RefreshPopularCron:  c.Config.Worker.RefreshPopularCron,
		RefreshPopularLimit: c.Config.Worker.RefreshPopularLimit,
	})

	if err := scheduler.RegisterAuthorJobs(); err != nil {
		log.Fatal().Err(err).Msg("[Scheduler] Failed to register")
	}

	go func() {
		log.Info().Msg("[Scheduler] Starting...")
		if err := scheduler.Start(); err != nil {
			log.Fatal().Err(err).Msg("[Scheduler] Failed")
		}
	}()

	return &asynqScheduler{Scheduler: scheduler}
}

func (s *asynqScheduler) Shutdown() {
	log.Info().Msg("[Scheduler] Shutting down...")
	s.Scheduler.Shutdown()
	log.Info().Msg("[Scheduler] Stopped")
}
