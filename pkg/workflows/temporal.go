// Package workflows connects notekeeper processes to Temporal. The client
// and its workers trace through OpenTelemetry and log through logger.Logger.
package workflows

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	"go.temporal.io/sdk/interceptor"
	temporallog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	"github.com/ghuser/notekeeper/pkg/logger"
)

// Options selects the Temporal frontend, namespace and task queue.
type Options struct {
	HostPort  string
	Namespace string
	TaskQueue string
}

// Temporal is a connected client bound to one task queue.
type Temporal struct {
	client    client.Client
	taskQueue string
	log       logger.Logger
}

// Dial connects to the Temporal frontend and fails if it cannot be reached.
func Dial(ctx context.Context, opts Options, log logger.Logger) (*Temporal, error) {
	tracing, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{
		Tracer: otel.Tracer("notekeeper/temporal"),
	})
	if err != nil {
		return nil, fmt.Errorf("temporal tracing interceptor: %w", err)
	}

	c, err := client.DialContext(ctx, client.Options{
		HostPort:     opts.HostPort,
		Namespace:    opts.Namespace,
		Logger:       sdkLogger(log),
		Interceptors: []interceptor.ClientInterceptor{tracing},
	})
	if err != nil {
		return nil, fmt.Errorf("dial temporal %s: %w", opts.HostPort, err)
	}

	log.Info("temporal connected",
		"host_port", opts.HostPort,
		"namespace", opts.Namespace,
		"task_queue", opts.TaskQueue,
	)
	return &Temporal{client: c, taskQueue: opts.TaskQueue, log: log}, nil
}

// Client returns the SDK client for starting and querying workflows.
func (t *Temporal) Client() client.Client { return t.client }

// TaskQueue returns the queue workflows are started on and workers poll.
func (t *Temporal) TaskQueue() string { return t.taskQueue }

// NewWorker returns an unstarted worker polling the task queue. Activities
// get ten seconds to finish when the worker stops.
func (t *Temporal) NewWorker() worker.Worker {
	return worker.New(t.client, t.taskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize: 16,
		WorkerStopTimeout:                  10 * time.Second,
	})
}

// Close releases the connection.
func (t *Temporal) Close() {
	t.client.Close()
	t.log.Info("temporal connection closed")
}

func sdkLogger(log logger.Logger) temporallog.Logger {
	return temporallog.NewStructuredLogger(log.ToSlog())
}
