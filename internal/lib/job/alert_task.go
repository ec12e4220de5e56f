package job

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TaskProcessAlert is the job type name stored in Redis.
	TaskProcessAlert = "alert:process_action"
)

// ProcessAlertPayload is the JSON payload of the alert task.
type ProcessAlertPayload struct {
	Action     string    `json:"action"`
	Target     string    `json:"target"`
	Status     string    `json:"status"`
	Details    string    `json:"details,omitempty"`
	Host       string    `json:"host"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewProcessAlertTask constructs the alert task: critical queue, three
// retries, thirty seconds per attempt.
func NewProcessAlertTask(p ProcessAlertPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskProcessAlert,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue("critical"),
		asynq.Timeout(30*time.Second),
	), nil
}
