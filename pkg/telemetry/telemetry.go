package telemetry

import (
	"fmt"
	"sync"
	"time"
)

// EventType classifies a telemetry event.
type EventType string

const (
	EventApplicationQueued   EventType = "application.queued"
	EventApplicationAdmitted EventType = "application.admitted"
	EventApplicationFinished EventType = "application.finished"
	EventSchedulingExhausted EventType = "scheduling.exhausted"
	EventRunFinalized        EventType = "run.finalized"
)

// Event is one telemetry occurrence, published by the scheduler and
// consumed by whatever observes a run (a CLI progress printer, an
// experiment harness, a test).
type Event struct {
	Type      EventType
	Timestamp time.Time
	Message   string
	Metadata  map[string]string
}

// Subscriber is a channel that receives events.
type Subscriber chan *Event

// Broker fans out published events to every live subscriber, dropping
// events for subscribers whose buffer is full rather than blocking the
// publisher.
type Broker struct {
	subscribers map[Subscriber]bool
	mu          sync.RWMutex
	eventCh     chan *Event
	stopCh      chan struct{}
}

// NewBroker creates a broker with a 100-event publish buffer.
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[Subscriber]bool),
		eventCh:     make(chan *Event, 100),
		stopCh:      make(chan struct{}),
	}
}

// Start begins the broker's distribution loop.
func (b *Broker) Start() {
	go b.run()
}

// Stop stops the distribution loop. Not idempotent: calling it twice panics,
// matching close-channel semantics; callers stop a broker exactly once.
func (b *Broker) Stop() {
	close(b.stopCh)
}

// Subscribe registers a new subscription with a 50-event buffer.
func (b *Broker) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, 50)
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes and closes a subscription.
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[sub]; ok {
		delete(b.subscribers, sub)
		close(sub)
	}
}

// Publish hands an event to the broker's distribution loop.
func (b *Broker) Publish(event *Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case b.eventCh <- event:
	case <-b.stopCh:
	}
}

func (b *Broker) run() {
	for {
		select {
		case event := <-b.eventCh:
			b.broadcast(event)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) broadcast(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subscribers {
		select {
		case sub <- event:
		default:
		}
	}
}

// Summary is the artifact a scheduler run hands to telemetry when it
// finishes: the admission-time waiting-time histogram and run duration the
// original implementation shells out to influx/matplotlib for.
type Summary struct {
	WaitingTimes          []int
	Elapsed               time.Duration
	ApplicationsScheduled int
}

// Reporter is the post-run artifact sink a scheduler finalizes into.
type Reporter interface {
	Report(Summary)
}

// Report publishes a run.finalized event carrying the summary. It never
// blocks past Stop: a finalize call racing a broker shutdown simply drops
// the event, same as any other Publish.
func (b *Broker) Report(s Summary) {
	b.Publish(&Event{
		Type:    EventRunFinalized,
		Message: fmt.Sprintf("run finalized: %d applications scheduled in %s", s.ApplicationsScheduled, s.Elapsed),
		Metadata: map[string]string{
			"applications_scheduled": fmt.Sprint(s.ApplicationsScheduled),
			"waiting_time_samples":   fmt.Sprint(len(s.WaitingTimes)),
		},
	})
}
