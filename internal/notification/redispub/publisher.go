// Package redispub publishes alert notifications to a Redis pub/sub channel
// so external dashboards and integrations can react without polling.
package redispub

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultChannel is used when no channel is configured.
const DefaultChannel = "lead-alerts"

// AlertMessage is the JSON document published for every raised alert.
type AlertMessage struct {
	AlertID     uuid.UUID `json:"alertId"`
	LeadID      uuid.UUID `json:"leadId"`
	LeadName    string    `json:"leadName"`
	Trigger     string    `json:"trigger"`
	Priority    string    `json:"priority"`
	Message     string    `json:"message"`
	IntentScore int       `json:"intentScore"`
	Stage       string    `json:"stage"`
	RaisedAt    time.Time `json:"raisedAt"`
}

// Publisher writes alert messages to a Redis channel.
type Publisher struct {
	client  *redis.Client
	channel string
}

// NewClient builds a go-redis client from a redis:// or rediss:// URL.
func NewClient(redisURL string, tlsInsecure bool) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if tlsInsecure {
		if opt.TLSConfig == nil {
			opt.TLSConfig = &tls.Config{}
		}
		opt.TLSConfig.InsecureSkipVerify = true
	}
	return redis.NewClient(opt), nil
}

// NewPublisher creates a Publisher on channel.
func NewPublisher(client *redis.Client, channel string) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{client: client, channel: channel}
}

// Channel returns the channel messages are published to.
func (p *Publisher) Channel() string {
	return p.channel
}

// PublishAlert publishes msg and returns the number of subscribers that received it.
func (p *Publisher) PublishAlert(ctx context.Context, msg AlertMessage) (int64, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return 0, fmt.Errorf("marshal alert: %w", err)
	}
	receivers, err := p.client.Publish(ctx, p.channel, data).Result()
	if err != nil {
		return 0, fmt.Errorf("publish alert: %w", err)
	}
	return receivers, nil
}

// Close releases the underlying connection pool.
func (p *Publisher) Close() error {
	return p.client.Close()
}
