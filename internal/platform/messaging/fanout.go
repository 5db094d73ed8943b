package messaging

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"moveserver/internal/shared/events"

	"github.com/google/uuid"
)

const (
	DefaultSubscriberBuffer = 64
	payloadVersion          = 1
)

// Recorder observes fan-out traffic. Metrics satisfies it.
type Recorder interface {
	ObserveEventPublished(eventType string)
	ObserveEventDropped(eventType string)
	SetSubscribers(count int)
}

// Fanout broadcasts envelopes to every current subscriber. Each subscriber
// owns a bounded channel; a full channel loses the event for that subscriber
// only and Publish never waits on a reader.
type Fanout struct {
	mu          sync.RWMutex
	subscribers map[*Subscription]struct{}
	buffer      int
	source      string
	now         func() time.Time
	recorder    Recorder
	logger      *slog.Logger
}

func NewFanout(source string, buffer int, recorder Recorder, logger *slog.Logger) *Fanout {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fanout{
		subscribers: make(map[*Subscription]struct{}),
		buffer:      buffer,
		source:      source,
		now:         time.Now,
		recorder:    recorder,
		logger:      logger,
	}
}

// Subscription is one observer's view of the stream.
type Subscription struct {
	fanout *Fanout
	ch     chan events.Envelope
	once   sync.Once
}

func (s *Subscription) Events() <-chan events.Envelope {
	return s.ch
}

// Close detaches the subscription and closes its channel. Safe to call twice.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.fanout.remove(s)
	})
}

func (f *Fanout) Subscribe() *Subscription {
	sub := &Subscription{
		fanout: f,
		ch:     make(chan events.Envelope, f.buffer),
	}

	f.mu.Lock()
	f.subscribers[sub] = struct{}{}
	count := len(f.subscribers)
	f.mu.Unlock()

	f.observeSubscribers(count)
	f.logger.Debug("event subscriber attached",
		"event", "fanout_subscribe",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"subscribers", count,
	)
	return sub
}

func (f *Fanout) SubscriberCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers)
}

// Publish wraps the payload in an envelope and offers it to every subscriber.
// Sends happen under the read lock so a concurrent Close cannot close a
// channel mid-send.
func (f *Fanout) Publish(_ context.Context, eventType string, entityID string, payload any) error {
	envelope := events.Envelope{
		EventID:        uuid.NewString(),
		EventType:      eventType,
		SourceService:  f.source,
		OccurredAtUTC:  f.now().UTC(),
		EntityID:       entityID,
		PayloadVersion: payloadVersion,
		Payload:        payload,
	}

	dropped := 0
	f.mu.RLock()
	for sub := range f.subscribers {
		select {
		case sub.ch <- envelope:
		default:
			dropped++
		}
	}
	delivered := len(f.subscribers) - dropped
	f.mu.RUnlock()

	if f.recorder != nil {
		f.recorder.ObserveEventPublished(eventType)
		for i := 0; i < dropped; i++ {
			f.recorder.ObserveEventDropped(eventType)
		}
	}
	if dropped > 0 {
		f.logger.Warn("dropping event for slow subscribers",
			"event", "fanout_publish_drop",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"event_type", eventType,
			"event_id", envelope.EventID,
			"entity_id", entityID,
			"dropped", dropped,
		)
	}
	f.logger.Debug("event published",
		"event", "fanout_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"event_type", eventType,
		"event_id", envelope.EventID,
		"delivered", delivered,
	)
	return nil
}

func (f *Fanout) remove(target *Subscription) {
	f.mu.Lock()
	if _, ok := f.subscribers[target]; !ok {
		f.mu.Unlock()
		return
	}
	delete(f.subscribers, target)
	close(target.ch)
	count := len(f.subscribers)
	f.mu.Unlock()

	f.observeSubscribers(count)
}

func (f *Fanout) observeSubscribers(count int) {
	if f.recorder != nil {
		f.recorder.SetSubscribers(count)
	}
}
