package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var ErrQueueFull = errors.New("forwarder queue full")

// drainTimeout bounds the final flush of queued events on shutdown.
const drainTimeout = 5 * time.Second

// MessagePublisher delivers one event to an external broker.
type MessagePublisher interface {
	Publish(ctx context.Context, event *Event) error
}

// Forwarder copies bus events to a broker off the request path. Events are
// buffered in memory and retried with backoff; a full buffer drops the event.
type Forwarder struct {
	publisher   MessagePublisher
	queue       chan *Event
	retryPolicy RetryPolicy
	logger      *zerolog.Logger
	wg          sync.WaitGroup
}

func NewForwarder(publisher MessagePublisher, bufferSize int, retry RetryPolicy, logger *zerolog.Logger) *Forwarder {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Forwarder{
		publisher:   publisher,
		queue:       make(chan *Event, bufferSize),
		retryPolicy: retry.withDefaults(),
		logger:      logger,
	}
}

// Handle is an EventHandler; it never blocks the publisher.
func (f *Forwarder) Handle(event *Event) error {
	select {
	case f.queue <- event:
		return nil
	default:
		f.logger.Warn().Str("event_type", event.Type).Str("event_id", event.ID).Msg("forwarder queue full, event dropped")
		return ErrQueueFull
	}
}

// Start launches the delivery loop in a goroutine. Once ctx is done the loop
// makes one delivery attempt per event still queued and exits.
func (f *Forwarder) Start(ctx context.Context) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		f.run(ctx)
	}()
}

func (f *Forwarder) run(ctx context.Context) {
	f.logger.Info().Msg("event forwarder started")
	defer f.logger.Info().Msg("event forwarder stopped")

	for {
		select {
		case <-ctx.Done():
			f.drain()
			return
		case event := <-f.queue:
			f.deliver(ctx, event)
		}
	}
}

func (f *Forwarder) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	for {
		select {
		case event := <-f.queue:
			if err := f.publisher.Publish(ctx, event); err != nil {
				f.logger.Error().Err(err).Str("event_type", event.Type).Str("event_id", event.ID).
					Msg("event dropped on shutdown")
			}
		default:
			return
		}
	}
}

// Wait blocks until the delivery loop has exited.
func (f *Forwarder) Wait() {
	f.wg.Wait()
}

func (f *Forwarder) deliver(ctx context.Context, event *Event) {
	for attempt := 1; ; attempt++ {
		err := f.publisher.Publish(ctx, event)
		if err == nil {
			return
		}
		if attempt >= f.retryPolicy.MaxRetries {
			f.logger.Error().Err(err).Str("event_type", event.Type).Str("event_id", event.ID).
				Int("attempts", attempt).Msg("event forward failed")
			return
		}

		delay := f.retryPolicy.NextDelay(attempt)
		f.logger.Warn().Err(err).Str("event_id", event.ID).Dur("retry_in", delay).Msg("event forward retry")
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}
