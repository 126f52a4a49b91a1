package clock

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/oshokin/alarm-clock/internal/session"
)

// dispatchQueueSize is the initial capacity of the send queue.
const dispatchQueueSize = 16

// runMsg carries a closure to run inside Update.
type runMsg func()

// Dispatcher posts closures to a running bubbletea program. A single sender
// goroutine forwards them, so they reach Update in posting order.
type Dispatcher struct {
	send func(tea.Msg)
	loop *session.Loop
	mu   sync.RWMutex
}

// Attach routes posted closures to p until ctx is done.
func (d *Dispatcher) Attach(ctx context.Context, p *tea.Program) {
	loop := session.NewLoop(dispatchQueueSize)

	d.mu.Lock()
	d.send = p.Send
	d.loop = loop
	d.mu.Unlock()

	go loop.Run(ctx)
}

// Post queues fn on the program's event loop. Closures posted before Attach
// are dropped. Post never blocks, so Update may post.
func (d *Dispatcher) Post(fn func()) {
	d.mu.RLock()
	send, loop := d.send, d.loop
	d.mu.RUnlock()

	if loop == nil {
		return
	}

	loop.Post(func() { send(runMsg(fn)) })
}
