package engine

import (
	"sync"
	"time"
)

// Default cosmetic progress parameters.
const (
	DefaultProgressStep     = 5
	DefaultProgressInterval = 500 * time.Millisecond
	DefaultProgressCap      = 90
)

// Progress is a cosmetic ticker. It advances a percentage by Step every
// Interval, never past Cap, and has no relation to real transfer progress.
type Progress struct {
	Step     int
	Interval time.Duration
	Cap      int

	// OnTick receives the new value after every increment.
	OnTick func(int)

	mu      sync.Mutex
	value   int
	stop    chan struct{}
	done    chan struct{}
	running bool
}

// NewProgress returns a ticker with the default step, interval and cap.
func NewProgress(onTick func(int)) *Progress {
	return &Progress{
		Step:     DefaultProgressStep,
		Interval: DefaultProgressInterval,
		Cap:      DefaultProgressCap,
		OnTick:   onTick,
	}
}

// Start resets the value to 0 and begins ticking. A running ticker is
// stopped first.
func (p *Progress) Start() {
	p.Stop()

	p.mu.Lock()
	p.value = 0
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	p.running = true
	stop, done := p.stop, p.done
	p.mu.Unlock()

	go p.run(stop, done)
}

func (p *Progress) run(stop, done chan struct{}) {
	defer close(done)

	t := time.NewTicker(p.Interval)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C:
			p.mu.Lock()
			if p.value < p.Cap {
				p.value += p.Step
				if p.value > p.Cap {
					p.value = p.Cap
				}
			}
			v := p.value
			p.mu.Unlock()

			// A stop that raced the tick wins.
			select {
			case <-stop:
				return
			default:
			}
			if p.OnTick != nil {
				p.OnTick(v)
			}
		}
	}
}

// Stop halts the ticker and waits until its goroutine has exited, so no tick
// is delivered after Stop returns. Safe to call repeatedly.
func (p *Progress) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stop)
	done := p.done
	p.mu.Unlock()

	<-done
}

// Running reports whether the ticker goroutine is active.
func (p *Progress) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Value returns the current percentage.
func (p *Progress) Value() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}
