package musifysdk

import (
	"sync"
	"time"
)

// DefaultResendCooldown is the number of ticks a resend is blocked for.
const DefaultResendCooldown = 60

// Cooldown counts down once per Interval. The zero value is not usable;
// build one with NewCooldown.
type Cooldown struct {
	Interval time.Duration

	mu        sync.Mutex
	remaining int
	stop      chan struct{}
}

// NewCooldown returns a stopped cooldown ticking every interval, one second
// when interval is not positive.
func NewCooldown(interval time.Duration) *Cooldown {
	if interval <= 0 {
		interval = time.Second
	}
	return &Cooldown{Interval: interval}
}

// Start (re)starts the countdown at n, DefaultResendCooldown when n <= 0.
func (c *Cooldown) Start(n int) {
	if n <= 0 {
		n = DefaultResendCooldown
	}

	c.mu.Lock()
	if c.stop != nil {
		close(c.stop)
	}
	stop := make(chan struct{})
	c.stop = stop
	c.remaining = n
	c.mu.Unlock()

	go c.run(stop)
}

func (c *Cooldown) run(stop chan struct{}) {
	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.stop != stop {
				c.mu.Unlock()
				return
			}
			if c.remaining > 0 {
				c.remaining--
			}
			done := c.remaining == 0
			if done {
				c.stop = nil
			}
			c.mu.Unlock()

			if done {
				return
			}
		}
	}
}

// Tick decrements the countdown by one, never below zero.
func (c *Cooldown) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remaining > 0 {
		c.remaining--
	}
}

// Stop cancels the countdown and resets it to zero.
func (c *Cooldown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	c.remaining = 0
}

func (c *Cooldown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

func (c *Cooldown) Active() bool { return c.Remaining() > 0 }
