package dispatch

import (
	"context"
	"encoding/json"
	"time"

	redisc "github.com/flowhook/core/internal/pkg/redis"
	"github.com/redis/go-redis/v9"
)

const (
	// keyPrefix stores execution records, keyed by execution id;
	// queueKey is the list the downstream worker pops from.
	keyPrefix = "fh:exec:"
	queueKey  = "fh:exec:queue"
	recordTTL = 7 * 24 * time.Hour
)

// Execution is the unit of work handed to the downstream worker.
type Execution struct {
	ExecutionID string                 `json:"execution_id"`
	FlowID      string                 `json:"flow_id"`
	Payload     map[string]interface{} `json:"payload"`
	EnqueuedAt  time.Time              `json:"enqueued_at"`
}

// Queue is the Redis-backed hand-off to the automation workers. The
// gateway only enqueues; retries and execution are the workers' job.
type Queue struct {
	rc *redisc.Client
}

func NewQueue(rc *redisc.Client) *Queue { return &Queue{rc: rc} }

// Dispatch stores the execution record and pushes its id onto the
// worker queue in one transaction. Honors the context deadline, so a
// stalled Redis surfaces as an error instead of hanging the response.
func (q *Queue) Dispatch(ctx context.Context, executionID, flowID string, payload map[string]interface{}) error {
	exec := Execution{
		ExecutionID: executionID,
		FlowID:      flowID,
		Payload:     payload,
		EnqueuedAt:  time.Now(),
	}
	data, err := json.Marshal(exec)
	if err != nil {
		return err
	}

	pipe := q.rc.Raw().TxPipeline()
	pipe.Set(ctx, keyPrefix+executionID, data, recordTTL)
	pipe.LPush(ctx, queueKey, executionID)
	_, err = pipe.Exec(ctx)
	return err
}

// Depth returns the number of executions waiting for a worker.
func (q *Queue) Depth(ctx context.Context) (int64, error) {
	return q.rc.Raw().LLen(ctx, queueKey).Result()
}

// Get retrieves a queued execution record, nil when expired or unknown.
func (q *Queue) Get(ctx context.Context, executionID string) (*Execution, error) {
	data, err := q.rc.Raw().Get(ctx, keyPrefix+executionID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var exec Execution
	return &exec, json.Unmarshal(data, &exec)
}
