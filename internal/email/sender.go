// Package email delivers alert notifications over SMTP.
package email

import (
	"context"
	"time"
)

// AlertEmail is the content of one alert notification.
type AlertEmail struct {
	LeadName    string
	Priority    string
	Trigger     string
	Message     string
	IntentScore int
	Stage       string
	LeadURL     string
	RaisedAt    time.Time
}

// Sender delivers alert e-mails.
type Sender interface {
	SendAlertEmail(ctx context.Context, to []string, alert AlertEmail) error
}

// NoopSender is used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendAlertEmail(context.Context, []string, AlertEmail) error {
	return nil
}
