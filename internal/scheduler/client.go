package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"lead_intel_backend/internal/leads/domain"
	"lead_intel_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const (
	defaultQueue    = "default"
	ingestMaxRetry  = 5
	ingestTimeout   = 30 * time.Second
	rescoreTimeout  = 30 * time.Minute
	rescoreUniqueTT = time.Hour
)

type Client struct {
	client *asynq.Client
	queue  string
	now    func() time.Time
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueIngest queues a raw lead for background ingestion.
func (c *Client) EnqueueIngest(ctx context.Context, raw domain.RawLead) (string, string, error) {
	if c == nil || c.client == nil {
		return "", "", fmt.Errorf("scheduler client not configured")
	}

	task, err := NewIngestLeadTask(IngestLeadPayload{Lead: raw, ReceivedAt: c.now()})
	if err != nil {
		return "", "", err
	}

	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.MaxRetry(ingestMaxRetry),
		asynq.Timeout(ingestTimeout),
	)
	if err != nil {
		return "", "", err
	}
	return info.ID, info.Queue, nil
}

// EnqueueRescore queues a full rescore pass. Only one pass may be pending per hour.
func (c *Client) EnqueueRescore(ctx context.Context, batchSize int, dryRun bool) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("scheduler client not configured")
	}

	task, err := NewRescoreLeadsTask(RescoreLeadsPayload{BatchSize: batchSize, DryRun: dryRun})
	if err != nil {
		return "", err
	}

	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.MaxRetry(0),
		asynq.Timeout(rescoreTimeout),
		asynq.Unique(rescoreUniqueTT),
	)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

func queueName(cfg config.SchedulerConfig) string {
	if q := cfg.GetAsynqQueueName(); q != "" {
		return q
	}
	return defaultQueue
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
