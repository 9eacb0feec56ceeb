package queue

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"bookreview-backend/internal/domains/author/job"
	"bookreview-backend/internal/shared"
)

// JobConfig holds cron specs for periodic jobs. An empty spec disables the job.
type JobConfig struct {
	RefreshPopularCron  string
	RefreshPopularLimit int
}

// periodicRegistrar is the part of *asynq.Scheduler used to register jobs
type periodicRegistrar interface {
	Register(cronspec string, task *asynq.Task, opts ...asynq.Option) (string, error)
}

type Scheduler struct {
	scheduler *asynq.Scheduler
	jobConfig JobConfig
}

func NewScheduler(redisOpt asynq.RedisClientOpt, jobConfig JobConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		jobConfig: jobConfig,
	}
}

func (s *Scheduler) RegisterAuthorJobs() error {
	return registerAuthorJobs(s.scheduler, s.jobConfig)
}

func (s *Scheduler) Start() error {
	return s.scheduler.Start()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}

// ================================================
// JOB: Refresh popular authors snapshot
// ================================================
func registerAuthorJobs(r periodicRegistrar, cfg JobConfig) error {
	if cfg.RefreshPopularCron == "" {
		log.Info().Msg("[Scheduler] RefreshPopularAuthors disabled")
		return nil
	}

	payload, err := json.Marshal(job.RefreshPopularPayload{Limit: cfg.RefreshPopularLimit})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeRefreshPopularAuthors, payload)

	entryID, err := r.Register(
		cfg.RefreshPopularCron,
		task,
		asynq.Queue(shared.QueueAuthor),
		asynq.MaxRetry(3),
		asynq.Timeout(2*time.Minute),
	)
	if err != nil {
		return fmt.Errorf("register RefreshPopularAuthors job: %w", err)
	}

	log.Info().
		Str("entry_id", entryID).
		Str("schedule", cfg.RefreshPopularCron).
		Msg("[Scheduler] Registered RefreshPopularAuthors job")
	return nil
}
