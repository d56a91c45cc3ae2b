package core

import (
	"errors"
	"sync/atomic"

	"gpsdo/irq"
)

var (
	ErrPoolExhausted   = errors.New("timer pool exhausted")
	ErrInvalidPoolSize = errors.New("timer pool size out of range")
)

// QueueStats is a snapshot of how many timers sit on each list
type QueueStats struct {
	Free   int
	Active int
	Fork   int
	Done   int
}

// Total returns the number of timers across all lists
func (q QueueStats) Total() int {
	return q.Free + q.Active + q.Fork + q.Done
}

// Scheduler multiplexes the periodic tick interrupt into software timers.
//
// Four lists are built from one fixed arena of nodes:
//   - free:   unused nodes; shared with interrupt context (PostImmediate)
//   - active: counting down; background only
//   - fork:   posted from interrupt context for background execution
//   - done:   expired or immediate work; background only
//
// The free and fork lists are touched by interrupt handlers, so the
// background side guards them with irq.Disable/irq.Restore.
type Scheduler struct {
	nodes  []Timer
	free   nodeIndex
	active nodeIndex
	fork   nodeIndex
	done   nodeIndex

	pending   uint32 // atomic: ticks not yet applied to the active list
	forkDrops uint32 // atomic: PostImmediate requests lost to exhaustion

	drift *DriftCompensator
}

// NewScheduler builds the timer arena once. No node is ever allocated
// after this returns.
func NewScheduler(poolSize int, drift *DriftCompensator) (*Scheduler, error) {
	if poolSize <= 0 || poolSize > MaxTimers {
		return nil, ErrInvalidPoolSize
	}

	s := &Scheduler{
		nodes:  make([]Timer, poolSize),
		free:   nilNode,
		active: nilNode,
		fork:   nilNode,
		done:   nilNode,
		drift:  drift,
	}

	// Chain the free list in arena order
	for i := poolSize - 1; i >= 0; i-- {
		s.nodes[i].next = s.free
		s.free = nodeIndex(i)
	}
	return s, nil
}

// Capacity returns the fixed number of timers in the pool
func (s *Scheduler) Capacity() int {
	return len(s.nodes)
}

// pop unlinks the head of a list
func (s *Scheduler) pop(head *nodeIndex) nodeIndex {
	i := *head
	if i != nilNode {
		*head = s.nodes[i].next
		s.nodes[i].next = nilNode
	}
	return i
}

// push links a node at the head of a list
func (s *Scheduler) push(head *nodeIndex, i nodeIndex) {
	s.nodes[i].next = *head
	*head = i
}

// SetTimer schedules kind to run after ticks; ticks == 0 queues it for the
// next dispatch. A periodic timer reloads with ticks each time its task
// returns TaskReschedule. Must be called from the background loop.
func (s *Scheduler) SetTimer(kind TaskKind, ticks, context uint8, payload Payload, periodic bool) error {
	state := irq.Disable()
	i := s.pop(&s.free)
	irq.Restore(state)

	if i == nilNode {
		return ErrPoolExhausted
	}

	t := &s.nodes[i]
	t.Remaining = ticks
	t.Interval = 0
	if periodic {
		t.Interval = ticks
	}
	t.Kind = kind
	t.Context = context
	t.Payload = payload

	if ticks > 0 {
		s.push(&s.active, i)
	} else {
		s.push(&s.done, i)
	}
	return nil
}

// PostImmediate queues one-shot work from interrupt context. It uses the
// fork list so it never races the background on the active or done heads.
// An exhausted pool drops the request.
func (s *Scheduler) PostImmediate(kind TaskKind, context uint8, payload Payload) {
	i := s.pop(&s.free)
	if i == nilNode {
		atomic.AddUint32(&s.forkDrops, 1)
		return
	}

	t := &s.nodes[i]
	t.Remaining = 0
	t.Interval = 0
	t.Kind = kind
	t.Context = context
	t.Payload = payload
	s.push(&s.fork, i)
}

// TickISR runs once per hardware tick. It records the tick for the
// background and returns the compare value for the next tick period.
func (s *Scheduler) TickISR() uint16 {
	atomic.AddUint32(&s.pending, 1)
	if s.drift == nil {
		return 0
	}
	return s.drift.Next()
}

// PendingTicks returns the number of ticks not yet processed
func (s *Scheduler) PendingTicks() uint32 {
	return atomic.LoadUint32(&s.pending)
}

// ForkDrops returns how many interrupt-posted tasks were lost
func (s *Scheduler) ForkDrops() uint32 {
	return atomic.LoadUint32(&s.forkDrops)
}

// ProcessTicks applies every pending tick to the active list, moving
// expired timers to the head of the done list.
func (s *Scheduler) ProcessTicks() {
	for atomic.LoadUint32(&s.pending) > 0 {
		atomic.AddUint32(&s.pending, ^uint32(0))
		s.countDown()
	}
}

// countDown decrements each active timer by one tick
func (s *Scheduler) countDown() {
	link := &s.active
	for i := *link; i != nilNode; i = *link {
		t := &s.nodes[i]
		if t.Remaining > 0 {
			t.Remaining--
		}
		if t.Remaining != 0 {
			link = &t.next
			continue
		}
		*link = t.next
		s.push(&s.done, i)
	}
}

// DispatchDue runs fork work, then done work, until both lists are empty.
// run returns TaskReschedule to reload a periodic timer; any other code,
// or a one-shot timer, returns the node to the free list.
func (s *Scheduler) DispatchDue(run func(*Timer) uint8) int {
	ran := 0
	for {
		state := irq.Disable()
		i := s.pop(&s.fork)
		irq.Restore(state)

		if i == nilNode {
			i = s.pop(&s.done)
			if i == nilNode {
				return ran
			}
		}

		t := &s.nodes[i]
		ran++
		if run(t) == TaskReschedule && t.Interval != 0 {
			t.Remaining = t.Interval
			s.push(&s.active, i)
			continue
		}

		state = irq.Disable()
		s.push(&s.free, i)
		irq.Restore(state)
	}
}

// Idle reports whether the background has nothing left to do
func (s *Scheduler) Idle() bool {
	state := irq.Disable()
	forkEmpty := s.fork == nilNode
	irq.Restore(state)
	return forkEmpty && s.done == nilNode && s.PendingTicks() == 0
}

func (s *Scheduler) listLen(head nodeIndex) int {
	n := 0
	for i := head; i != nilNode; i = s.nodes[i].next {
		n++
	}
	return n
}

// QueueLengths counts the nodes on each list
func (s *Scheduler) QueueLengths() QueueStats {
	state := irq.Disable()
	defer irq.Restore(state)

	return QueueStats{
		Free:   s.listLen(s.free),
		Active: s.listLen(s.active),
		Fork:   s.listLen(s.fork),
		Done:   s.listLen(s.done),
	}
}

// Dump renders list membership by arena slot on one line, e.g.
// "Free: 3, 4 Active: 1, 0 Fork: - Done: -"
func (s *Scheduler) Dump() string {
	state := irq.Disable()
	defer irq.Restore(state)

	lists := [...]struct {
		label string
		head  nodeIndex
	}{
		{"Free", s.free},
		{"Active", s.active},
		{"Fork", s.fork},
		{"Done", s.done},
	}

	out := ""
	for n, l := range lists {
		if n > 0 {
			out += " "
		}
		out += l.label + ":"
		if l.head == nilNode {
			out += " -"
			continue
		}
		for i, k := l.head, 0; i != nilNode; i, k = s.nodes[i].next, k+1 {
			if k > 0 {
				out += ","
			}
			out += " " + itoa(int32(i))
		}
	}
	return out
}
