package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/boutique/jobs"
)

// Enqueuer triggers periodic tasks.
type Enqueuer interface {
	Trigger(ctx context.Context, taskType string) (*asynq.TaskInfo, error)
}

// Inspector reads queue state.
type Inspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
	ListScheduledTasks(queue string, opts ...asynq.ListOption) ([]*asynq.TaskInfo, error)
}

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    Enqueuer
	inspector Inspector
	closers   []io.Closer
}

// NewJobsCLI initialises the CLI helpers using the provided Redis address.
func NewJobsCLI(redisAddr string) (*JobsCLI, error) {
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	client, err := jobs.NewClient(opts)
	if err != nil {
		return nil, err
	}
	inspector := asynq.NewInspector(opts)
	return &JobsCLI{client: client, inspector: inspector, closers: []io.Closer{inspector, client}}, nil
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	for _, closer := range c.closers {
		if closeErr := closer.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// Trigger enqueues a periodic job by name.
func (c *JobsCLI) Trigger(ctx context.Context, name string) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	info, err := c.client.Trigger(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("jobs cli: %w", err)
	}
	return info, nil
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
}

// InspectQueue reports the queue metrics for the default queue.
func (c *JobsCLI) InspectQueue(ctx context.Context) (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
	}
	return stats, nil
}

// ListScheduled returns scheduled task infos for observability.
func (c *JobsCLI) ListScheduled(ctx context.Context, size int) ([]*asynq.TaskInfo, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	if size <= 0 {
		size = 10
	}
	return c.inspector.ListScheduledTasks(jobs.QueueDefault, asynq.PageSize(size), asynq.Page(1))
}

// StatsCommand prints the queue state and returns the process exit code.
func (c *JobsCLI) StatsCommand(ctx context.Context, stdout, stderr io.Writer) int {
	stats, err := c.InspectQueue(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "jobs stats: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(stdout, "queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
		stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
	return 0
}

// TriggerCommand enqueues name and returns the process exit code.
func (c *JobsCLI) TriggerCommand(ctx context.Context, name string, stdout, stderr io.Writer) int {
	info, err := c.Trigger(ctx, name)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "jobs trigger: %v\n", err)
		if errors.Is(err, jobs.ErrUnknownTask) {
			return 2
		}
		return 1
	}
	_, _ = fmt.Fprintf(stdout, "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
	return 0
}
