package email

import (
	"fmt"
	"time"
)

// ProcessAlert describes a failed or destructive management action.
type ProcessAlert struct {
	Action     string
	Target     string
	Status     string
	Details    string
	Host       string
	OccurredAt time.Time
}

// SendProcessAlert notifies the operators about a management action.
func (c *Client) SendProcessAlert(to []string, alert ProcessAlert) error {
	subject := fmt.Sprintf("[%s] %s %s em %s", alert.Status, alert.Action, alert.Target, alert.Host)
	return c.SendEmail(to, subject, TemplateProcessAlert, alert)
}
