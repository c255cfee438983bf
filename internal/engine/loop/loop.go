// Package loop provides the single-threaded cooperative scheduler that drives
// timers and frame callbacks from the render thread.
//
// Nothing scheduled on a Loop runs concurrently with anything else scheduled on
// it: callbacks only run inside Tick, which the owner calls once per frame.
// Goroutines hand work back to the loop with Post.
package loop

import (
	"sort"
	"sync"
	"time"
)

// Handle identifies a scheduled timer or frame callback.
// The zero Handle is never issued and is safe to Cancel.
type Handle uint64

// FrameFunc is a frame callback. now is the timestamp of the tick running it.
type FrameFunc func(now time.Time)

// Scheduler is the subset of Loop that components schedule work on.
type Scheduler interface {
	SetTimeout(d time.Duration, fn func()) Handle
	SetInterval(d time.Duration, fn func()) Handle
	RequestFrame(fn FrameFunc) Handle
	Cancel(h Handle)
	Post(fn func())
	Now() time.Time
}

type timer struct {
	due      time.Time
	interval time.Duration
	fn       func()
}

// Loop is a manually ticked event loop.
type Loop struct {
	mu     sync.Mutex
	now    time.Time
	next   Handle
	timers map[Handle]*timer
	frames map[Handle]FrameFunc
	posted []func()
}

// New creates a loop whose clock starts at now.
func New(now time.Time) *Loop {
	return &Loop{
		now:    now,
		timers: make(map[Handle]*timer),
		frames: make(map[Handle]FrameFunc),
	}
}

// Now returns the timestamp of the last tick.
func (l *Loop) Now() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.now
}

// SetTimeout runs fn once, on the first tick at or after now+d.
func (l *Loop) SetTimeout(d time.Duration, fn func()) Handle {
	return l.addTimer(d, 0, fn)
}

// SetInterval runs fn every d until cancelled. A late tick fires it once,
// it does not catch up on missed periods.
func (l *Loop) SetInterval(d time.Duration, fn func()) Handle {
	if d <= 0 {
		d = time.Millisecond
	}
	return l.addTimer(d, d, fn)
}

func (l *Loop) addTimer(d, interval time.Duration, fn func()) Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next++
	l.timers[l.next] = &timer{due: l.now.Add(d), interval: interval, fn: fn}
	return l.next
}

// RequestFrame runs fn once on the next tick.
func (l *Loop) RequestFrame(fn FrameFunc) Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next++
	l.frames[l.next] = fn
	return l.next
}

// Cancel removes a pending timer or frame callback. Unknown, fired and zero
// handles are ignored.
func (l *Loop) Cancel(h Handle) {
	if h == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.timers, h)
	delete(l.frames, h)
}

// Post queues fn to run at the start of the next tick. Safe for use from any
// goroutine.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.posted = append(l.posted, fn)
	l.mu.Unlock()
}

// Pending returns the number of scheduled timers and frame callbacks.
// Posted closures are not counted.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.timers) + len(l.frames)
}

// Tick advances the clock to now and runs, in order: posted closures, due
// timers (earliest first), then the frame callbacks that were requested
// before this tick started. Work scheduled by callbacks waits for a later tick.
func (l *Loop) Tick(now time.Time) {
	l.mu.Lock()
	if now.After(l.now) {
		l.now = now
	}
	now = l.now
	posted := l.posted
	l.posted = nil

	type dueTimer struct {
		h   Handle
		due time.Time
	}
	var due []dueTimer
	for h, t := range l.timers {
		if !t.due.After(now) {
			due = append(due, dueTimer{h, t.due})
		}
	}
	frames := make([]Handle, 0, len(l.frames))
	for h := range l.frames {
		frames = append(frames, h)
	}
	l.mu.Unlock()

	for _, fn := range posted {
		fn()
	}

	sort.Slice(due, func(i, j int) bool {
		if due[i].due.Equal(due[j].due) {
			return due[i].h < due[j].h
		}
		return due[i].due.Before(due[j].due)
	})
	for _, d := range due {
		if fn := l.takeTimer(d.h, now); fn != nil {
			fn()
		}
	}

	sort.Slice(frames, func(i, j int) bool { return frames[i] < frames[j] })
	for _, h := range frames {
		if fn := l.takeFrame(h); fn != nil {
			fn(now)
		}
	}
}

// takeTimer claims a due timer, re-arming it if it repeats. It returns nil if
// an earlier callback in the same tick cancelled it.
func (l *Loop) takeTimer(h Handle, now time.Time) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.timers[h]
	if !ok {
		return nil
	}
	if t.interval > 0 {
		t.due = t.due.Add(t.interval)
		if !t.due.After(now) {
			t.due = now.Add(t.interval)
		}
	} else {
		delete(l.timers, h)
	}
	return t.fn
}

func (l *Loop) takeFrame(h Handle) FrameFunc {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn, ok := l.frames[h]
	if !ok {
		return nil
	}
	delete(l.frames, h)
	return fn
}
