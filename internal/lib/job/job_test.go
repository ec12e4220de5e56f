package job

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/grupotelles/comercial/internal/config"
	"github.com/grupotelles/comercial/internal/lib/email"
	"github.com/hibiken/asynq"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAlertSender struct {
	to     []string
	alerts []email.ProcessAlert
	err    error
}

func (f *fakeAlertSender) SendProcessAlert(to []string, alert email.ProcessAlert) error {
	f.to = to
	f.alerts = append(f.alerts, alert)
	return f.err
}

func TestNewProcessAlertTask(t *testing.T) {
	at := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	task, err := NewProcessAlertTask(ProcessAlertPayload{Action: "KILL_PORT", Target: "3000", Status: "ERRO", Host: "srv", OccurredAt: at})
	require.NoError(t, err)

	assert.Equal(t, TaskProcessAlert, task.Type())

	var p ProcessAlertPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, "3000", p.Target)
	assert.True(t, at.Equal(p.OccurredAt))
}

func TestHandleProcessAlertTask(t *testing.T) {
	logger := zerolog.Nop()
	sender := &fakeAlertSender{}
	j := &JobService{logger: &logger, emailClient: sender, recipients: []string{"ops@example.com"}}

	task, err := NewProcessAlertTask(ProcessAlertPayload{Action: "update", Target: "api", Status: "ERRO", Details: "npm ERR!"})
	require.NoError(t, err)

	require.NoError(t, j.handleProcessAlertTask(context.Background(), task))
	require.Len(t, sender.alerts, 1)
	assert.Equal(t, []string{"ops@example.com"}, sender.to)
	assert.Equal(t, "npm ERR!", sender.alerts[0].Details)
}

func TestHandleProcessAlertTaskBadPayload(t *testing.T) {
	logger := zerolog.Nop()
	j := &JobService{logger: &logger, emailClient: &fakeAlertSender{}}

	err := j.handleProcessAlertTask(context.Background(), asynq.NewTask(TaskProcessAlert, []byte("{")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestDisabledServiceIsInert(t *testing.T) {
	logger := zerolog.Nop()
	j := NewJobService(&logger, &config.Config{Redis: config.RedisConfig{Address: "localhost:6379"}})

	assert.False(t, j.Enabled())
	assert.NoError(t, j.Start())
	j.EnqueueProcessAlert(context.Background(), ProcessAlertPayload{Action: "stop"})
	j.Stop()
}
