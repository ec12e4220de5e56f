package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/grupotelles/comercial/internal/config"
	"github.com/grupotelles/comercial/internal/lib/email"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// InitHandlers builds the dependencies of the task handlers.
func (j *JobService) InitHandlers(cfg *config.Config, logger *zerolog.Logger) {
	j.emailClient = email.NewClient(cfg, logger)
}

// handleProcessAlertTask emails the alert to the configured recipients.
// Returning an error makes Asynq retry the task.
func (j *JobService) handleProcessAlertTask(ctx context.Context, t *asynq.Task) error {
	var p ProcessAlertPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal process alert payload: %w: %w", err, asynq.SkipRetry)
	}

	logger := j.logger.With().
		Str("type", TaskProcessAlert).
		Str("action", p.Action).
		Str("target", p.Target).
		Logger()

	logger.Info().Msg("Processing process alert task")

	err := j.emailClient.SendProcessAlert(j.recipients, email.ProcessAlert{
		Action:     p.Action,
		Target:     p.Target,
		Status:     p.Status,
		Details:    p.Details,
		Host:       p.Host,
		OccurredAt: p.OccurredAt,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to send process alert")
		return err
	}

	logger.Info().Msg("Successfully sent process alert")
	return nil
}
