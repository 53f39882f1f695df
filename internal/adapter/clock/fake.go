package clock

import (
	"sort"
	"sync"
	"time"

	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/port"
)

// Fake is a virtual clock. Time only moves on Advance, and due callbacks
// run synchronously on the caller's goroutine in deadline order.
type Fake struct {
	mu    sync.Mutex
	now   time.Time
	seq   int
	tasks []*fakeTask
}

type fakeTask struct {
	clock *Fake
	at    time.Time
	seq   int
	f     func()
	done  bool
}

func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (c *Fake) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Fake) AfterFunc(d time.Duration, f func()) port.Task {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	t := &fakeTask{clock: c, at: c.now.Add(d), seq: c.seq, f: f}
	c.tasks = append(c.tasks, t)
	return t
}

// Advance moves the clock forward by d, running every callback that falls
// due on the way. Callbacks may schedule or cancel other tasks.
func (c *Fake) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.nextDueLocked(target)
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = next.at
		next.done = true
		c.removeLocked(next)
		c.mu.Unlock()

		next.f()
	}
}

// Pending is the number of scheduled tasks that have neither run nor been cancelled.
func (c *Fake) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tasks)
}

func (c *Fake) nextDueLocked(target time.Time) *fakeTask {
	sort.SliceStable(c.tasks, func(i, j int) bool {
		if c.tasks[i].at.Equal(c.tasks[j].at) {
			return c.tasks[i].seq < c.tasks[j].seq
		}
		return c.tasks[i].at.Before(c.tasks[j].at)
	})
	if len(c.tasks) == 0 || c.tasks[0].at.After(target) {
		return nil
	}
	return c.tasks[0]
}

func (c *Fake) removeLocked(t *fakeTask) {
	for i, candidate := range c.tasks {
		if candidate == t {
			c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
			return
		}
	}
}

func (t *fakeTask) Cancel() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.done {
		return false
	}
	t.done = true
	t.clock.removeLocked(t)
	return true
}
