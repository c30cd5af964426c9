package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// TaskTypeVerifyDocument is the asynq task type for async verification.
const TaskTypeVerifyDocument = "verify:document"

// VerifyPayload is the task body for one async verification job. Image bytes
// ride along base64-encoded by encoding/json.
type VerifyPayload struct {
	JobID     string `json:"job_id"`
	CompanyID string `json:"company_id"`
	Filename  string `json:"filename"`
	Image     []byte `json:"image"`
}

// Enqueuer submits verification jobs to the Redis-backed queue.
type Enqueuer struct {
	client    *asynq.Client
	queueName string
}

// NewEnqueuer connects an asynq client to the queue.
func NewEnqueuer(redisURL, queueName string) (*Enqueuer, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}
	if queueName == "" {
		return nil, fmt.Errorf("QueueName is required")
	}

	redisOpt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	return &Enqueuer{
		client:    asynq.NewClient(redisOpt),
		queueName: queueName,
	}, nil
}

// EnqueueVerification submits one job. Retries are a queue-layer concern; the
// pipeline itself never retries anything.
func (e *Enqueuer) EnqueueVerification(ctx context.Context, payload *VerifyPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal verify payload: %w", err)
	}

	task := asynq.NewTask(TaskTypeVerifyDocument, body)
	_, err = e.client.EnqueueContext(ctx, task,
		asynq.Queue(e.queueName),
		asynq.MaxRetry(3),
		asynq.Timeout(5*time.Minute),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue job %s: %w", payload.JobID, err)
	}

	return nil
}

// Close releases the underlying Redis connection.
func (e *Enqueuer) Close() error {
	return e.client.Close()
}
