package email

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []*resend.SendEmailRequest
	err  error
}

func (f *fakeSender) Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, params)
	return &resend.SendEmailResponse{Id: "em_1"}, nil
}

func newTestClient(s sender) *Client {
	logger := zerolog.Nop()
	return &Client{emails: s, from: "Comercial <alertas@example.com>", logger: &logger}
}

func TestSendProcessAlert(t *testing.T) {
	s := &fakeSender{}
	c := newTestClient(s)

	err := c.SendProcessAlert([]string{"ti@example.com"}, ProcessAlert{
		Action:     "update",
		Target:     "3",
		Status:     "ERRO",
		Details:    "fatal: <could not read>",
		Host:       "srv-app01",
		OccurredAt: time.Date(2025, 5, 4, 10, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, s.sent, 1)

	msg := s.sent[0]
	assert.Equal(t, "Comercial <alertas@example.com>", msg.From)
	assert.Equal(t, []string{"ti@example.com"}, msg.To)
	assert.Equal(t, "[ERRO] update 3 em srv-app01", msg.Subject)
	assert.Contains(t, msg.Html, "UPDATE ERRO")
	assert.Contains(t, msg.Html, "04/05/2025 10:30:00")
	assert.Contains(t, msg.Html, "fatal: &lt;could not read&gt;")
}

func TestSendEmailRequiresRecipients(t *testing.T) {
	c := newTestClient(&fakeSender{})
	assert.Error(t, c.SendEmail(nil, "x", TemplateProcessAlert, ProcessAlert{}))
}

func TestSendEmailProviderError(t *testing.T) {
	c := newTestClient(&fakeSender{err: errors.New("rate limited")})

	err := c.SendEmail([]string{"a@example.com"}, "x", TemplateProcessAlert, ProcessAlert{Host: "h"})
	assert.ErrorContains(t, err, "rate limited")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := Render("missing", nil)
	assert.Error(t, err)
}
