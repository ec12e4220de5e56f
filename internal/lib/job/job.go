// Package job provides background job processing using Asynq.
//
// Asynq is a Redis-backed job queue:
//   - You enqueue tasks (producer) using asynq.Client.
//   - A server runs workers that process those tasks (consumer) using asynq.Server.
//
// The management sidecar enqueues an alert task for every failed or
// destructive action so operators get an email without the HTTP request
// waiting on the mail provider.
package job

import (
	"context"

	"github.com/grupotelles/comercial/internal/config"
	"github.com/grupotelles/comercial/internal/lib/email"
	"github.com/hibiken/asynq"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// alertSender is what the alert handler needs from the email client.
type alertSender interface {
	SendProcessAlert(to []string, alert email.ProcessAlert) error
}

// JobService holds the Asynq client (enqueue) and server (worker execution).
type JobService struct {
	// Client is used to enqueue tasks into Redis.
	Client *asynq.Client

	// server runs worker processes that pull tasks from Redis and execute handlers.
	server *asynq.Server

	emailClient alertSender
	recipients  []string
	enabled     bool

	logger *zerolog.Logger
}

// NewJobService creates a JobService configured to use Redis from cfg.
//
// Queue weights give "critical" tasks the larger worker share. When alerts
// are not configured the service is inert: Enqueue calls are no-ops and
// Start does not spawn workers.
func NewJobService(logger *zerolog.Logger, cfg *config.Config) *JobService {
	j := &JobService{
		logger:     logger,
		recipients: cfg.Integration.AlertRecipients,
		enabled:    cfg.Integration.AlertsEnabled(),
	}
	if !j.enabled {
		return j
	}

	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Address}

	j.Client = asynq.NewClient(redisOpt)
	j.server = asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)
	return j
}

// Enabled reports whether alert jobs are enqueued and processed.
func (j *JobService) Enabled() bool {
	return j != nil && j.enabled
}

// Start registers the task handlers and starts the workers. asynq runs the
// workers in the background; Start returns once they are up.
func (j *JobService) Start() error {
	if !j.Enabled() {
		j.logger.Info().Msg("alert recipients not configured, background jobs disabled")
		return nil
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskProcessAlert, j.handleProcessAlertTask)

	j.logger.Info().Msg("Starting background job server")
	if err := j.server.Start(mux); err != nil {
		return errors.Wrap(err, "start job server")
	}
	return nil
}

// Stop gracefully stops the job server and closes client resources.
func (j *JobService) Stop() {
	if !j.Enabled() {
		return
	}
	j.logger.Info().Msg("Stopping background job server")
	j.server.Shutdown()
	j.Client.Close()
}

// EnqueueProcessAlert schedules an alert email. Failures are logged and
// swallowed: an alert must never fail the action it reports.
func (j *JobService) EnqueueProcessAlert(ctx context.Context, p ProcessAlertPayload) {
	if !j.Enabled() {
		return
	}

	task, err := NewProcessAlertTask(p)
	if err != nil {
		j.logger.Error().Err(err).Msg("failed to build alert task")
		return
	}

	info, err := j.Client.EnqueueContext(ctx, task)
	if err != nil {
		j.logger.Error().Err(err).Str("action", p.Action).Str("target", p.Target).Msg("failed to enqueue alert")
		return
	}
	j.logger.Debug().Str("task_id", info.ID).Str("queue", info.Queue).Msg("alert enqueued")
}
