package editor

import (
	"time"

	"github.com/lomber1/notes-web/pkg/clock"
	"github.com/lomber1/notes-web/pkg/core"
)

// changeCoalescer debounces draft updates: only the latest snapshot survives a burst and it
// is handed to fire once the delay passes without a newer schedule.
type changeCoalescer struct {
	sched clock.Scheduler
	delay time.Duration
	post  func(func()) // hops timer callbacks onto the loop
	fire  func(core.Content)

	timer  clock.Timer
	latest core.Content
	armed  bool
	gen    uint64 // invalidates callbacks that were already queued when the timer was re-armed
}

func newChangeCoalescer(sched clock.Scheduler, delay time.Duration, post func(func()), fire func(core.Content)) *changeCoalescer {
	return &changeCoalescer{
		sched: sched,
		delay: delay,
		post:  post,
		fire:  fire,
	}
}

// schedule records content and re-arms the timer, cancelling the previous fire.
func (c *changeCoalescer) schedule(content core.Content) {
	c.latest = content
	c.stopTimer()
	c.armed = true
	c.gen++
	gen := c.gen
	c.timer = c.sched.AfterFunc(c.delay, func() {
		c.post(func() { c.deliver(gen) })
	})
}

func (c *changeCoalescer) deliver(gen uint64) {
	if !c.armed || gen != c.gen {
		return
	}
	c.armed = false
	c.timer = nil
	c.fire(c.latest)
}

func (c *changeCoalescer) pending() bool { return c.armed }

// cancel disarms the timer; the pending snapshot is dropped.
func (c *changeCoalescer) cancel() {
	c.stopTimer()
	c.armed = false
	c.gen++
}

// flush disarms the timer and returns the snapshot it would have fired with.
func (c *changeCoalescer) flush() (core.Content, bool) {
	if !c.armed {
		return core.Content{}, false
	}
	content := c.latest
	c.cancel()
	return content, true
}

func (c *changeCoalescer) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
