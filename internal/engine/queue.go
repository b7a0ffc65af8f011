package engine

import "sync/atomic"

// Action is the kind of trigger-queue entry.
type Action int

const (
	ActionTrigger Action = iota
	ActionRelease
	ActionStop
)

// triggerMsg is one entry in the trigger queue.
type triggerMsg struct {
	action Action
	pad    int
}

// queueCapacity bounds how many in-flight trigger/release/stop actions can
// queue between audio callback blocks.
const queueCapacity = 512

// triggerQueue is a bounded, multi-producer/single-consumer queue. It is
// backed by a Go channel with a buffered capacity — the closest portable
// equivalent of a lock-free MPSC ring buffer available without cgo/asm.
// Put never blocks: on a full queue it drops the newest message and
// increments droppedTriggers instead of stalling the caller.
type triggerQueue struct {
	ch      chan triggerMsg
	dropped uint64
}

func newTriggerQueue() *triggerQueue {
	return &triggerQueue{ch: make(chan triggerMsg, queueCapacity)}
}

// Put enqueues (action, pad) from any thread. Never blocks.
func (q *triggerQueue) Put(action Action, pad int) {
	select {
	case q.ch <- triggerMsg{action: action, pad: pad}:
	default:
		atomic.AddUint64(&q.dropped, 1)
	}
}

// DrainInto pops every currently queued message (bounded by capacity) into
// the audio thread's local slice, without blocking.
func (q *triggerQueue) DrainInto(buf []triggerMsg) []triggerMsg {
	for {
		select {
		case msg := <-q.ch:
			buf = append(buf, msg)
		default:
			return buf
		}
	}
}

// Dropped returns the running count of triggers dropped due to overflow.
func (q *triggerQueue) Dropped() uint64 {
	return atomic.LoadUint64(&q.dropped)
}
