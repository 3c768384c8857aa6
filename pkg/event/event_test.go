package event

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversInOrder(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	bus := NewBus(WithClock(func() time.Time { return at }))

	var got []string
	bus.Subscribe(TopicCartUpdated, func(ev Event) { got = append(got, "first:"+ev.Topic) })
	bus.Subscribe(TopicCartUpdated, func(ev Event) {
		assert.Equal(t, at, ev.At)
		got = append(got, "second")
	})
	bus.Subscribe("other", func(Event) { got = append(got, "other") })

	bus.Publish(TopicCartUpdated)
	assert.Equal(t, []string{"first:cart.updated", "second"}, got)
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()

	calls := 0
	unsubscribe := bus.Subscribe(TopicCartUpdated, func(Event) { calls++ })
	bus.Publish(TopicCartUpdated)

	unsubscribe()
	unsubscribe()
	bus.Publish(TopicCartUpdated)

	assert.Equal(t, 1, calls)
	assert.Zero(t, bus.Subscribers(TopicCartUpdated))
}

func TestBusHandlerMayResubscribe(t *testing.T) {
	bus := NewBus()

	calls := 0
	var unsubscribe func()
	unsubscribe = bus.Subscribe(TopicCartUpdated, func(Event) {
		calls++
		unsubscribe()
		bus.Subscribe(TopicCartUpdated, func(Event) { calls += 10 })
	})

	bus.Publish(TopicCartUpdated)
	assert.Equal(t, 1, calls)

	bus.Publish(TopicCartUpdated)
	assert.Equal(t, 11, calls)
}

func TestBusChannelSubscriber(t *testing.T) {
	bus := NewBus()

	ch, cancel := bus.SubscribeChan(TopicCartUpdated, 1)

	bus.Publish(TopicCartUpdated)
	bus.Publish(TopicCartUpdated) // dropped, buffer is full

	select {
	case ev := <-ch:
		assert.Equal(t, TopicCartUpdated, ev.Topic)
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}

	select {
	case <-ch:
		t.Fatal("second event should have been dropped")
	default:
	}

	cancel()
	_, open := <-ch
	assert.False(t, open)

	// Publishing after the channel is gone must not panic.
	bus.Publish(TopicCartUpdated)
}

func TestBusConcurrentPublishAndUnsubscribe(t *testing.T) {
	bus := NewBus()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				bus.Publish(TopicCartUpdated)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_, cancel := bus.SubscribeChan(TopicCartUpdated, 4)
				cancel()
			}
		}()
	}
	wg.Wait()

	require.Zero(t, bus.Subscribers(TopicCartUpdated))
}
