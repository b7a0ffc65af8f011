package playback

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []Event
	pads   []int
	onEach func(m *StateMachine, event Event, pad int)
	m      *StateMachine
}

func (r *recordingObserver) OnPlaybackEvent(event Event, padIndex int) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.pads = append(r.pads, padIndex)
	r.mu.Unlock()
	if r.onEach != nil {
		r.onEach(r.m, event, padIndex)
	}
}

func TestTriggerThenPlayingMovesSets(t *testing.T) {
	m := New()
	m.NotifyTriggered(3)
	assert.True(t, m.IsTriggered(3))
	assert.False(t, m.IsPlaying(3))

	m.NotifyPlaying(3)
	assert.False(t, m.IsTriggered(3))
	assert.True(t, m.IsPlaying(3))
}

func TestTriggeredAndPlayingAreDisjoint(t *testing.T) {
	m := New()
	for i := 0; i < 10; i++ {
		m.NotifyTriggered(i)
		if i%2 == 0 {
			m.NotifyPlaying(i)
		}
	}
	for i := 0; i < 10; i++ {
		if m.IsPlaying(i) {
			assert.False(t, m.IsTriggered(i))
		}
	}
}

func TestStoppedSuppressedWhenNotPlaying(t *testing.T) {
	m := New()
	var rec recordingObserver
	m.RegisterObserver(&rec)

	m.NotifyStopped(7) // never playing: suppressed
	assert.Empty(t, rec.events)

	m.NotifyTriggered(7)
	m.NotifyPlaying(7)
	m.NotifyStopped(7)
	require.Len(t, rec.events, 3)
	assert.Equal(t, PadStopped, rec.events[2])

	m.NotifyStopped(7) // idempotent: no longer playing
	assert.Len(t, rec.events, 3)
}

func TestFinishedSuppressedWhenNotPlaying(t *testing.T) {
	m := New()
	var rec recordingObserver
	m.RegisterObserver(&rec)

	m.NotifyFinished(1)
	assert.Empty(t, rec.events)
}

func TestObserverCanQueryDuringCallbackWithoutDeadlock(t *testing.T) {
	m := New()
	rec := &recordingObserver{m: m}
	rec.onEach = func(m *StateMachine, event Event, pad int) {
		if event == PadPlaying {
			// Reentrant read from inside the callback must not deadlock,
			// and must never observe pad in both sets simultaneously.
			assert.True(t, m.IsPlaying(pad))
			assert.False(t, m.IsTriggered(pad))
		}
	}
	m.RegisterObserver(rec)

	done := make(chan struct{})
	go func() {
		m.NotifyTriggered(4)
		m.NotifyPlaying(4)
		close(done)
	}()
	<-done
}

func TestRegistrationDuringNotifyDeferredToNextCycle(t *testing.T) {
	m := New()
	var second recordingObserver
	first := &recordingObserver{onEach: func(*StateMachine, Event, int) {
		m.RegisterObserver(&second)
	}}
	m.RegisterObserver(first)

	m.NotifyTriggered(1) // first registers second mid-notify
	assert.Empty(t, second.events, "registration mid-notify must not affect the in-flight cycle")

	m.NotifyTriggered(2) // next cycle: second should now receive it
	assert.NotEmpty(t, second.events)
}
