package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeReceivesPublishedEvent(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()
	b.Publish(&Event{Type: EventApplicationAdmitted, Message: "a admitted"})

	select {
	case ev := <-sub:
		assert.Equal(t, EventApplicationAdmitted, ev.Type)
		assert.False(t, ev.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()
	b.Unsubscribe(sub)

	_, ok := <-sub
	assert.False(t, ok, "unsubscribed channel must be closed")
}

func TestReportPublishesRunFinalizedEvent(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()
	b.Report(Summary{WaitingTimes: []int{1, 2, 3}, Elapsed: 5 * time.Second, ApplicationsScheduled: 3})

	select {
	case ev := <-sub:
		require.Equal(t, EventRunFinalized, ev.Type)
		assert.Equal(t, "3", ev.Metadata["applications_scheduled"])
		assert.Equal(t, "3", ev.Metadata["waiting_time_samples"])
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for run.finalized event")
	}
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()
	for i := 0; i < 100; i++ {
		b.Publish(&Event{Type: EventApplicationQueued})
	}
	_ = sub
}
