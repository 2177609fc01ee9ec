// Package notification fans raised alerts out to live dashboards (SSE),
// a Redis pub/sub channel and, for critical alerts, e-mail.
// It subscribes to domain events so the leads module never depends on
// delivery channels.
package notification

import (
	"context"
	"errors"
	"time"

	"lead_intel_backend/internal/email"
	"lead_intel_backend/internal/events"
	apphttp "lead_intel_backend/internal/http"
	"lead_intel_backend/internal/notification/redispub"
	"lead_intel_backend/internal/notification/sse"
	"lead_intel_backend/platform/httpkit"
	"lead_intel_backend/platform/logger"
	"lead_intel_backend/platform/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	channelSSE   = "sse"
	channelRedis = "redis"
	channelEmail = "email"

	outcomeSent   = "sent"
	outcomeFailed = "failed"

	emailTimeout = 20 * time.Second
)

// AlertPublisher pushes alerts to an external channel.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, msg redispub.AlertMessage) (int64, error)
}

// Config holds the delivery settings the module needs.
type Config interface {
	GetAlertEmailRecipients() []string
	GetAppBaseURL() string
}

// Module is the notification module implementing http.Module and events.Handler.
type Module struct {
	stream     *sse.Service
	publisher  AlertPublisher
	sender     email.Sender
	recipients []string
	baseURL    string
	log        *logger.Logger
}

// New creates the notification module. publisher and sender may be nil.
func New(stream *sse.Service, publisher AlertPublisher, sender email.Sender, cfg Config, log *logger.Logger) *Module {
	if log == nil {
		log = logger.Nop()
	}
	if stream == nil {
		stream = sse.New(log)
	}
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Module{
		stream:     stream,
		publisher:  publisher,
		sender:     sender,
		recipients: cfg.GetAlertEmailRecipients(),
		baseURL:    cfg.GetAppBaseURL(),
		log:        log,
	}
}

func (m *Module) Name() string { return "notification" }

// Stream exposes the SSE service.
func (m *Module) Stream() *sse.Service { return m.stream }

// RegisterRoutes mounts the alert stream. Browsers pass the token as ?token=.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/alerts/stream", m.stream.Handler(func(c *gin.Context) (uuid.UUID, bool) {
		identity, ok := httpkit.GetIdentity(c)
		return identity.UserID, ok
	}))
}

// RegisterHandlers subscribes to the events this module reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.AlertRaised{}.EventName(), m)
	bus.Subscribe(events.LeadIngested{}.EventName(), m)
	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.AlertRaised:
		return m.handleAlertRaised(ctx, e)
	case events.LeadIngested:
		m.handleLeadIngested(e)
		return nil
	default:
		return nil
	}
}

func (m *Module) handleAlertRaised(ctx context.Context, e events.AlertRaised) error {
	log := m.log.WithContext(ctx)

	reached := m.stream.Broadcast(sse.Event{
		Type:    sse.EventAlertRaised,
		LeadID:  e.LeadID,
		AlertID: e.AlertID,
		Message: e.Message,
		Data: map[string]any{
			"leadName":    e.LeadName,
			"trigger":     e.Trigger,
			"priority":    e.Priority,
			"intentScore": e.IntentScore,
			"stage":       e.Stage,
		},
	})
	if reached > 0 {
		metrics.NotificationDelivered(channelSSE, outcomeSent)
	}

	var errs []error
	if m.publisher != nil {
		_, err := m.publisher.PublishAlert(ctx, redispub.AlertMessage{
			AlertID:     e.AlertID,
			LeadID:      e.LeadID,
			LeadName:    e.LeadName,
			Trigger:     e.Trigger,
			Priority:    e.Priority,
			Message:     e.Message,
			IntentScore: e.IntentScore,
			Stage:       e.Stage,
			RaisedAt:    e.OccurredAt(),
		})
		errs = append(errs, m.record(channelRedis, err))
	}

	if e.Priority == "critical" && len(m.recipients) > 0 {
		sendCtx, cancel := context.WithTimeout(ctx, emailTimeout)
		err := m.sender.SendAlertEmail(sendCtx, m.recipients, email.AlertEmail{
			LeadName:    e.LeadName,
			Priority:    e.Priority,
			Trigger:     e.Trigger,
			Message:     e.Message,
			IntentScore: e.IntentScore,
			Stage:       e.Stage,
			LeadURL:     m.leadURL(e.LeadID),
			RaisedAt:    e.OccurredAt(),
		})
		cancel()
		errs = append(errs, m.record(channelEmail, err))
	}

	err := errors.Join(errs...)
	if err != nil {
		log.Error("alert fan-out incomplete", "alertId", e.AlertID, "error", err)
	}
	return err
}

func (m *Module) handleLeadIngested(e events.LeadIngested) {
	m.stream.Broadcast(sse.Event{
		Type:   sse.EventLeadIngested,
		LeadID: e.LeadID,
		Data: map[string]any{
			"name":        e.Name,
			"source":      e.Source,
			"created":     e.Created,
			"intentScore": e.IntentScore,
			"stage":       e.Stage,
		},
	})
}

func (m *Module) record(channel string, err error) error {
	if err != nil {
		metrics.NotificationDelivered(channel, outcomeFailed)
		return err
	}
	metrics.NotificationDelivered(channel, outcomeSent)
	return nil
}

func (m *Module) leadURL(leadID uuid.UUID) string {
	if m.baseURL == "" {
		return ""
	}
	return m.baseURL + "/leads/" + leadID.String()
}
