/**
 * Queue consumer for async credential verification.
 *
 * Consumes verify:document tasks from the Redis-backed queue, runs the same
 * pipeline the synchronous API uses, and persists the verdict. Job status
 * sets and results are additionally mirrored into Redis for cheap dashboard
 * reads without touching PostgreSQL.
 */

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/uhakiki/verification-engine/internal/logging"
	"github.com/uhakiki/verification-engine/internal/metrics"
	"github.com/uhakiki/verification-engine/internal/pipeline"
	"github.com/uhakiki/verification-engine/internal/storage"
)

// Consumer handles verification jobs from the Redis queue.
type Consumer struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	rdb       *redis.Client
	pipeline  *pipeline.Pipeline
	store     *storage.PostgresClient
	metrics   *metrics.Metrics
	log       *logging.Logger
	queueName string
	timeout   time.Duration
}

// ConsumerConfig holds consumer configuration.
type ConsumerConfig struct {
	RedisURL     string
	QueueName    string
	Concurrency  int
	JobTimeoutMs int
	Pipeline     *pipeline.Pipeline
	Store        *storage.PostgresClient
	Metrics      *metrics.Metrics
	Logger       *logging.Logger
}

// NewConsumer creates a new queue consumer.
func NewConsumer(cfg *ConsumerConfig) (*Consumer, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}
	if cfg.QueueName == "" {
		return nil, fmt.Errorf("QueueName is required")
	}
	if cfg.Pipeline == nil {
		return nil, fmt.Errorf("Pipeline is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("Store is required")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	clientOpt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	rdb := redis.NewClient(clientOpt)

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				cfg.QueueName: 10, // priority 10 for the verification queue
				"default":     1,  // priority 1 for fallback
			},
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				// Exponential backoff: 5s, 10s, 20s, capped at 60s
				delay := time.Duration(5*(1<<uint(n))) * time.Second
				if delay > 60*time.Second {
					delay = 60 * time.Second
				}
				return delay
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				cfg.Logger.Error("task processing error", "type", task.Type(), "error", err)
			}),
		},
	)

	timeout := 120 * time.Second
	if cfg.JobTimeoutMs > 0 {
		timeout = time.Duration(cfg.JobTimeoutMs) * time.Millisecond
	}

	consumer := &Consumer{
		server:    server,
		mux:       asynq.NewServeMux(),
		rdb:       rdb,
		pipeline:  cfg.Pipeline,
		store:     cfg.Store,
		metrics:   cfg.Metrics,
		log:       cfg.Logger,
		queueName: cfg.QueueName,
		timeout:   timeout,
	}

	consumer.mux.HandleFunc(TaskTypeVerifyDocument, consumer.handleVerifyDocument)

	return consumer, nil
}

// Start begins processing jobs from the queue.
func (c *Consumer) Start() error {
	c.log.Info("starting queue consumer", "queue", c.queueName)
	return c.server.Start(c.mux)
}

// Stop gracefully stops the consumer.
func (c *Consumer) Stop() error {
	c.log.Info("stopping queue consumer")
	c.server.Shutdown()
	return c.rdb.Close()
}

// handleVerifyDocument processes one async verification job end to end.
func (c *Consumer) handleVerifyDocument(ctx context.Context, task *asynq.Task) error {
	var payload VerifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		// Malformed payloads can never succeed; don't retry.
		return fmt.Errorf("failed to unmarshal verify payload: %v: %w", err, asynq.SkipRetry)
	}

	c.log.Info("processing verification job", "job_id", payload.JobID, "filename", payload.Filename)
	c.markProcessing(ctx, payload.JobID)

	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	verdict := c.pipeline.Verify(runCtx, payload.Image)
	elapsed := time.Since(start)

	verdictJSON, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("failed to marshal verdict for job %s: %w", payload.JobID, err)
	}

	if err := c.store.UpsertJob(ctx, &storage.VerificationJob{
		ID:        payload.JobID,
		CompanyID: payload.CompanyID,
		Filename:  payload.Filename,
		Status:    storage.JobStatusCompleted,
		Verdict:   verdictJSON,
	}); err != nil {
		// Returning the error lets asynq retry; the pipeline run is cheap
		// compared with losing the result.
		c.markFailed(ctx, payload.JobID, err)
		return fmt.Errorf("failed to persist verdict for job %s: %w", payload.JobID, err)
	}

	c.markCompleted(ctx, payload.JobID, verdictJSON)
	if c.metrics != nil {
		c.metrics.JobsProcessedTotal.WithLabelValues(storage.JobStatusCompleted).Inc()
		c.metrics.ObserveVerification(string(verdict.FinalDecision))
	}

	c.log.Info("verification job completed",
		"job_id", payload.JobID,
		"decision", verdict.FinalDecision,
		"risk_score", verdict.RiskScore,
		"duration", elapsed)

	return nil
}

// Redis bookkeeping mirrors the job lifecycle for dashboards and GetStats.

func (c *Consumer) markProcessing(ctx context.Context, jobID string) {
	c.rdb.SAdd(ctx, fmt.Sprintf("%s:processing", c.queueName), jobID)
	c.publishEvent(ctx, jobID, storage.JobStatusProcessing)
}

func (c *Consumer) markCompleted(ctx context.Context, jobID string, verdictJSON []byte) {
	c.rdb.SRem(ctx, fmt.Sprintf("%s:processing", c.queueName), jobID)
	c.rdb.SAdd(ctx, fmt.Sprintf("%s:completed", c.queueName), jobID)
	c.rdb.HSet(ctx, fmt.Sprintf("%s:results", c.queueName), jobID, verdictJSON)
	c.publishEvent(ctx, jobID, storage.JobStatusCompleted)
}

func (c *Consumer) markFailed(ctx context.Context, jobID string, cause error) {
	c.rdb.SRem(ctx, fmt.Sprintf("%s:processing", c.queueName), jobID)
	c.rdb.SAdd(ctx, fmt.Sprintf("%s:failed", c.queueName), jobID)
	c.rdb.HSet(ctx, fmt.Sprintf("%s:errors", c.queueName), jobID, cause.Error())
	if c.metrics != nil {
		c.metrics.JobsProcessedTotal.WithLabelValues(storage.JobStatusFailed).Inc()
	}
	c.publishEvent(ctx, jobID, storage.JobStatusFailed)
}

func (c *Consumer) publishEvent(ctx context.Context, jobID, status string) {
	event := map[string]interface{}{
		"event":     fmt.Sprintf("job:%s", status),
		"job_id":    jobID,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	eventData, _ := json.Marshal(event)
	c.rdb.Publish(ctx, fmt.Sprintf("%s:events", c.queueName), eventData)
}

// GetStats returns queue statistics from the Redis bookkeeping sets.
func (c *Consumer) GetStats(ctx context.Context) (map[string]int64, error) {
	processing, err := c.rdb.SCard(ctx, fmt.Sprintf("%s:processing", c.queueName)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read queue stats: %w", err)
	}
	completed, _ := c.rdb.SCard(ctx, fmt.Sprintf("%s:completed", c.queueName)).Result()
	failed, _ := c.rdb.SCard(ctx, fmt.Sprintf("%s:failed", c.queueName)).Result()

	return map[string]int64{
		"processing": processing,
		"completed":  completed,
		"failed":     failed,
	}, nil
}
