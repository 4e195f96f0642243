package bus

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testObserver struct {
	mu             sync.Mutex
	publishCount   int
	deliveredCount int
	lastErr        error
}

func (o *testObserver) OnPublish(string, Event) {
	o.mu.Lock()
	o.publishCount++
	o.mu.Unlock()
}

func (o *testObserver) OnDelivered(_ string, handlers int, err error, _ time.Duration) {
	o.mu.Lock()
	o.deliveredCount += handlers
	o.lastErr = err
	o.mu.Unlock()
}

func TestPublishReachesSubscribersInOrder(t *testing.T) {
	b := New()
	var got []string
	for _, name := range []string{"a", "b", "c"} {
		_, err := b.Subscribe(EntityAdded, func(e Event) error {
			got = append(got, name)
			return nil
		})
		require.NoError(t, err)
	}

	require.NoError(t, b.Publish(NewEvent(EntityAdded, "manager", EntityInfo{ID: 1})))
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestPublishOnlyMatchingType(t *testing.T) {
	b := New()
	calls := 0
	_, _ = b.Subscribe(ProximityEntered, func(Event) error { calls++; return nil })

	require.NoError(t, b.Publish(NewEvent(ProximityLeft, "player", nil)))
	assert.Zero(t, calls)
	require.NoError(t, b.Publish(NewEvent(ProximityEntered, "player", nil)))
	assert.Equal(t, 1, calls)
}

func TestWildcardReceivesEverything(t *testing.T) {
	b := New()
	var types []string
	_, _ = b.Subscribe(Wildcard, func(e Event) error {
		types = append(types, e.Type())
		return nil
	})

	_ = b.PublishBatch(
		NewEvent(EntityAdded, "m", nil),
		NewEvent(AnimationChanged, "p", AnimationChange{From: "idle", To: "walk"}),
	)
	assert.Equal(t, []string{EntityAdded, AnimationChanged}, types)
}

func TestHandlerErrorsAreJoined(t *testing.T) {
	b := New()
	e1 := errors.New("first")
	e2 := errors.New("second")
	_, _ = b.Subscribe("x", func(Event) error { return e1 })
	_, _ = b.Subscribe("x", func(Event) error { return e2 })

	err := b.Publish(NewEvent("x", "src", nil))
	assert.ErrorIs(t, err, e1)
	assert.ErrorIs(t, err, e2)

	err = b.PublishBatch(NewEvent("x", "src", nil), NewEvent("y", "src", nil))
	assert.ErrorIs(t, err, e1)
}

func TestCancelStopsDelivery(t *testing.T) {
	b := New()
	calls := 0
	sub, err := b.Subscribe("x", func(Event) error { calls++; return nil })
	require.NoError(t, err)
	assert.NotEmpty(t, sub.ID())
	assert.Equal(t, "x", sub.EventType())

	require.NoError(t, b.Unsubscribe(sub))
	require.NoError(t, sub.Cancel())
	assert.False(t, sub.IsActive())
	assert.NoError(t, b.Unsubscribe(nil))

	_ = b.Publish(NewEvent("x", "src", nil))
	assert.Zero(t, calls)
}

func TestCancelDuringDelivery(t *testing.T) {
	b := New()
	var second Subscription
	secondCalled := false
	_, _ = b.Subscribe("x", func(Event) error {
		return second.Cancel()
	})
	second, _ = b.Subscribe("x", func(Event) error { secondCalled = true; return nil })

	require.NoError(t, b.Publish(NewEvent("x", "src", nil)))
	assert.False(t, secondCalled)
}

func TestSubscribeRejectsNilHandler(t *testing.T) {
	_, err := New().Subscribe("x", nil)
	assert.ErrorIs(t, err, ErrNilHandler)
}

func TestPublishBatchDeliversAllAndJoinsErrors(t *testing.T) {
	b := New()
	boom := errors.New("fail")
	var got []string
	_, _ = b.Subscribe("x", func(ev Event) error {
		got = append(got, ev.Source())
		if ev.Source() == "a" {
			return boom
		}
		return nil
	})

	err := b.PublishBatch(NewEvent("x", "a", nil), nil, NewEvent("x", "b", nil))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.NoError(t, b.PublishBatch())
}

func TestMetricsAndObservers(t *testing.T) {
	b := New()
	_, _ = b.Subscribe("e", func(Event) error { return nil })
	_ = b.Publish(NewEvent("e", "s", nil))
	assert.EqualValues(t, 1, b.Metrics().Published)

	obs := &testObserver{}
	b.AddObserver(obs)
	_ = b.Publish(NewEvent("e", "s", nil))

	m := b.Metrics()
	assert.EqualValues(t, 2, m.Published)
	assert.EqualValues(t, 2, m.DeliveredHandlers)
	assert.EqualValues(t, 1, m.SubscribersActive)
	assert.Equal(t, 1, obs.publishCount)
	assert.Equal(t, 1, obs.deliveredCount)

	b.RemoveObserver(obs)
	_ = b.Publish(NewEvent("e", "s", nil))
	assert.EqualValues(t, 3, b.Metrics().Published)
	assert.Equal(t, 1, obs.publishCount)
}

func TestConcurrentSubscribeAndPublish(t *testing.T) {
	b := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub, _ := b.Subscribe("c", func(Event) error { return nil })
			_ = sub.Cancel()
		}()
		go func() {
			defer wg.Done()
			_ = b.Publish(NewEvent("c", "g", nil))
		}()
	}
	wg.Wait()
}
