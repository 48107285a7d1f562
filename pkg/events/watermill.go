// Package events carries note change events over PostgreSQL using
// Watermill's SQL transport. The API writes events inside the note
// transaction; an outbox relay moves them onto their topics; the worker
// consumes them.
//
// Handlers must be idempotent: a failed message is retried in-process and
// then nacked, after which Watermill redelivers it.
package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	watermillsql "github.com/ThreeDotsLabs/watermill-sql/v3/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/ghuser/notekeeper/pkg/logger"
)

const (
	outboxTopic         = "notekeeper_outbox"
	outboxConsumerGroup = "notekeeper-outbox-relay"
	drainTimeout        = 30 * time.Second
	errBuffer           = 64
)

// ErrNoOutbox is returned by StartOutboxRelay on a bus opened without Outbox.
var ErrNoOutbox = errors.New("events: bus has no outbox")

// Handler processes one message. Returning an error triggers a retry.
type Handler func(ctx context.Context, msg *message.Message) error

// Options configures Open.
type Options struct {
	// ConsumerGroup load-balances each topic across every bus sharing the
	// group. Empty means every subscriber sees every message.
	ConsumerGroup string
	// Outbox routes publishes through a durable queue drained by
	// StartOutboxRelay instead of writing straight to the topic.
	Outbox bool
	// MaxAttempts per message before it is nacked. Defaults to 3.
	MaxAttempts int
	// RetryDelay before the second attempt, doubled after each failure.
	// Defaults to one second.
	RetryDelay time.Duration
}

func (o Options) retry() retryPolicy {
	p := retryPolicy{attempts: o.MaxAttempts, delay: o.RetryDelay}
	if p.attempts <= 0 {
		p.attempts = 3
	}
	if p.delay <= 0 {
		p.delay = time.Second
	}
	return p
}

// EventBus publishes and subscribes to note events stored in PostgreSQL.
type EventBus struct {
	db         *sql.DB
	publisher  message.Publisher
	subscriber *watermillsql.Subscriber
	relay      *forwarder.Forwarder
	opts       Options
	retry      retryPolicy
	wlog       watermill.LoggerAdapter
	log        logger.Logger
	handlers   sync.WaitGroup
}

// Open connects to dsn and prepares the Watermill SQL publisher and
// subscriber. Message tables are created on first use.
func Open(dsn string, log logger.Logger, opts Options) (*EventBus, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("events: open db: %w", err)
	}

	wlog := watermillLogger{log: log}

	pub, err := watermillsql.NewPublisher(db, publisherConfig(true), wlog)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("events: new publisher: %w", err)
	}

	sub, err := watermillsql.NewSubscriber(db, subscriberConfig(opts.ConsumerGroup), wlog)
	if err != nil {
		_ = pub.Close()
		_ = db.Close()
		return nil, fmt.Errorf("events: new subscriber: %w", err)
	}

	return &EventBus{
		db:         db,
		publisher:  wrapOutbox(pub, opts.Outbox),
		subscriber: sub,
		opts:       opts,
		retry:      opts.retry(),
		wlog:       wlog,
		log:        log,
	}, nil
}

func publisherConfig(autoInit bool) watermillsql.PublisherConfig {
	return watermillsql.PublisherConfig{
		SchemaAdapter:        watermillsql.DefaultPostgreSQLSchema{},
		AutoInitializeSchema: autoInit,
	}
}

func subscriberConfig(group string) watermillsql.SubscriberConfig {
	return watermillsql.SubscriberConfig{
		SchemaAdapter:    watermillsql.DefaultPostgreSQLSchema{},
		OffsetsAdapter:   watermillsql.DefaultPostgreSQLOffsetsAdapter{},
		InitializeSchema: true,
		ConsumerGroup:    group,
	}
}

func wrapOutbox(pub message.Publisher, outbox bool) message.Publisher {
	if !outbox {
		return pub
	}
	return forwarder.NewPublisher(pub, forwarder.PublisherConfig{ForwarderTopic: outboxTopic})
}

// StartOutboxRelay runs the daemon that moves enveloped messages from the
// outbox onto their target topics. It returns once the relay is running and
// stops when ctx is canceled or the bus is closed.
func (b *EventBus) StartOutboxRelay(ctx context.Context) error {
	if !b.opts.Outbox {
		return ErrNoOutbox
	}
	if b.relay != nil {
		return errors.New("events: outbox relay already started")
	}

	outboxSub, err := watermillsql.NewSubscriber(b.db, subscriberConfig(outboxConsumerGroup), b.wlog)
	if err != nil {
		return fmt.Errorf("events: outbox subscriber: %w", err)
	}
	targetPub, err := watermillsql.NewPublisher(b.db, publisherConfig(true), b.wlog)
	if err != nil {
		_ = outboxSub.Close()
		return fmt.Errorf("events: outbox target publisher: %w", err)
	}
	relay, err := forwarder.NewForwarder(outboxSub, targetPub, b.wlog, forwarder.Config{ForwarderTopic: outboxTopic})
	if err != nil {
		_ = targetPub.Close()
		_ = outboxSub.Close()
		return fmt.Errorf("events: new outbox relay: %w", err)
	}
	b.relay = relay

	b.handlers.Add(1)
	go func() {
		defer b.handlers.Done()
		if err := relay.Run(ctx); err != nil {
			b.log.ErrorContext(ctx, "events: outbox relay stopped", "error", err)
			return
		}
		b.log.InfoContext(ctx, "events: outbox relay stopped")
	}()

	select {
	case <-relay.Running():
		b.log.InfoContext(ctx, "events: outbox relay running", "topic", outboxTopic)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("events: waiting for outbox relay: %w", ctx.Err())
	}
}

// NewTxPublisher returns a publisher whose writes join tx, so a note row and
// its event commit or roll back together. Tables must already exist.
func (b *EventBus) NewTxPublisher(tx *sql.Tx) (message.Publisher, error) {
	pub, err := watermillsql.NewPublisher(tx, publisherConfig(false), b.wlog)
	if err != nil {
		return nil, fmt.Errorf("events: new tx publisher: %w", err)
	}
	return wrapOutbox(pub, b.opts.Outbox), nil
}

// Publish writes msgs to topic with the trace context of ctx attached.
func (b *EventBus) Publish(ctx context.Context, topic string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		InjectTrace(ctx, msg)
	}
	if err := b.publisher.Publish(topic, msgs...); err != nil { //nolint:contextcheck
		return fmt.Errorf("events: publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe runs handler for every message on topic until ctx is canceled
// or the bus is closed. The handler context continues the publisher's
// trace. Messages that exhaust their attempts are nacked and the error is
// sent on the returned channel, which callers must drain; it is closed when
// the subscription ends.
func (b *EventBus) Subscribe(ctx context.Context, topic string, handler Handler) (<-chan error, error) {
	msgs, err := b.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("events: subscribe %s: %w", topic, err)
	}

	errs := make(chan error, errBuffer)
	b.handlers.Add(1)
	go func() {
		defer b.handlers.Done()
		defer close(errs)
		for msg := range msgs {
			b.deliver(extractTrace(ctx, msg), topic, msg, handler, errs)
		}
	}()
	return errs, nil
}

func (b *EventBus) deliver(ctx context.Context, topic string, msg *message.Message, handler Handler, errs chan<- error) {
	log := b.log.With("topic", topic, "event_id", msg.Metadata.Get(MetadataEventID))

	err := b.retry.run(ctx, log, func(ctx context.Context) error { return handler(ctx, msg) })
	if err == nil {
		msg.Ack()
		return
	}

	msg.Nack()
	err = fmt.Errorf("events: %s message %s: %w", topic, msg.UUID, err)
	select {
	case errs <- err:
	default:
		log.ErrorContext(ctx, "events: error channel full", "error", err)
	}
}

// Ping checks the database behind the bus.
func (b *EventBus) Ping(ctx context.Context) error {
	if err := b.db.PingContext(ctx); err != nil {
		return fmt.Errorf("events: ping db: %w", err)
	}
	return nil
}

// Close stops subscriptions and the outbox relay, waits up to 30s for
// in-flight handlers, then releases the publisher and the database.
func (b *EventBus) Close() error {
	var errs []error
	if err := b.subscriber.Close(); err != nil {
		errs = append(errs, fmt.Errorf("events: close subscriber: %w", err))
	}
	if b.relay != nil {
		if err := b.relay.Close(); err != nil {
			errs = append(errs, fmt.Errorf("events: close outbox relay: %w", err))
		}
	}

	drained := make(chan struct{})
	go func() {
		b.handlers.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(drainTimeout):
		b.log.Error("events: in-flight handlers still running at shutdown", "waited", drainTimeout)
	}

	if err := b.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("events: close publisher: %w", err))
	}
	if err := b.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("events: close db: %w", err))
	}
	return errors.Join(errs...)
}

// retryPolicy runs a call up to attempts times, doubling delay between tries.
type retryPolicy struct {
	attempts int
	delay    time.Duration
}

func (p retryPolicy) run(ctx context.Context, log logger.Logger, call func(context.Context) error) error {
	delay := p.delay
	var err error
	for attempt := 1; ; attempt++ {
		if err = call(ctx); err == nil {
			return nil
		}
		if attempt >= p.attempts {
			return fmt.Errorf("gave up after %d attempts: %w", attempt, err)
		}
		log.WarnContext(ctx, "events: handler failed, retrying",
			"attempt", attempt,
			"next_delay", delay,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("retry interrupted: %w", ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// InjectTrace copies the trace context of ctx into the message metadata.
// Publish does this itself; transactional publishers need it explicitly.
func InjectTrace(ctx context.Context, msg *message.Message) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(msg.Metadata))
}

// extractTrace returns ctx carrying the trace recorded in the message metadata.
func extractTrace(ctx context.Context, msg *message.Message) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(msg.Metadata))
}

// watermillLogger routes Watermill's logging into logger.Logger. Trace
// records go to debug.
type watermillLogger struct{ log logger.Logger }

func (l watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.log.Error(msg, append(logArgs(fields), "error", err)...)
}

func (l watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.log.Info(msg, logArgs(fields)...)
}

func (l watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.log.Debug(msg, logArgs(fields)...)
}

func (l watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.log.Debug(msg, logArgs(fields)...)
}

func (l watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return watermillLogger{log: l.log.With(logArgs(fields)...)}
}

func logArgs(fields watermill.LogFields) []any {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}
