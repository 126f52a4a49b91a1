package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing/synctest"
	"time"
)

var errTestNetwork = errors.New("network unreachable")

// fakePicker is an in-memory time picker.
type fakePicker struct {
	hour, minute int
}

// HourMinute returns the stored hour and minute.
func (p *fakePicker) HourMinute() (int, int) { return p.hour, p.minute }

// SetHourMinute stores the hour and minute.
func (p *fakePicker) SetHourMinute(hour, minute int) { p.hour, p.minute = hour, minute }

// recordingRenderer keeps the last value written to every render target.
type recordingRenderer struct {
	texts    map[Target]string
	animated bool
	busy     bool
	busyLog  []bool
}

func newRecordingRenderer() *recordingRenderer {
	return &recordingRenderer{texts: make(map[Target]string)}
}

// SetText records text for the target.
func (r *recordingRenderer) SetText(target Target, text string) { r.texts[target] = text }

// SetAnimatedState records the enabled state.
func (r *recordingRenderer) SetAnimatedState(enabled bool) { r.animated = enabled }

// SetBusy records the busy indicator and its history.
func (r *recordingRenderer) SetBusy(busy bool) {
	r.busy = busy
	r.busyLog = append(r.busyLog, busy)
}

// queueDispatcher collects posted closures until the test drains them,
// standing in for the UI event loop.
type queueDispatcher struct {
	mu    sync.Mutex
	queue []func()
}

// Post queues fn.
func (d *queueDispatcher) Post(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.queue = append(d.queue, fn)
}

// drainOnce runs everything queued so far and reports whether anything ran.
func (d *queueDispatcher) drainOnce() bool {
	d.mu.Lock()
	queue := d.queue
	d.queue = nil
	d.mu.Unlock()

	for _, fn := range queue {
		fn()
	}

	return len(queue) > 0
}

// settle waits for in-flight goroutines and drains the queue until quiet.
// It must run inside a synctest bubble.
func (d *queueDispatcher) settle() {
	for {
		synctest.Wait()

		if !d.drainOnce() {
			return
		}
	}
}

// call is one request observed by fakeTransport.
type call struct {
	endpoint string
	request  Request
}

// fakeTransport is an in-memory alarm server.
type fakeTransport struct {
	mu      sync.Mutex
	calls   []call
	enabled bool
	time    string
	// fail makes a request fail when it returns an error.
	fail func(endpoint string) error
	// body overrides the get response when set.
	body []byte
	// gate blocks every request until it is closed or receives a value.
	gate chan struct{}
}

// Post records the request and answers like the real server.
func (f *fakeTransport) Post(_ context.Context, endpoint string, body []byte) ([]byte, error) {
	if f.gate != nil {
		<-f.gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var request Request
	if err := json.Unmarshal(body, &request); err != nil {
		return nil, err
	}

	f.calls = append(f.calls, call{endpoint: endpoint, request: request})

	if f.fail != nil {
		if err := f.fail(endpoint); err != nil {
			return nil, err
		}
	}

	if endpoint == EndpointStore {
		f.enabled = *request.Enabled
		f.time = request.Time
	}

	if f.body != nil {
		return f.body, nil
	}

	return json.Marshal(map[string]any{"enabled": f.enabled, "time": f.time})
}

// Calls returns a copy of the observed requests.
func (f *fakeTransport) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]call(nil), f.calls...)
}

// utcClock returns the bubble's virtual time in UTC.
func utcClock() Clock {
	return ClockFunc(func() time.Time { return time.Now().UTC() })
}

// fixture bundles a session with its fakes.
type fixture struct {
	session    *Session
	transport  *fakeTransport
	picker     *fakePicker
	renderer   *recordingRenderer
	dispatcher *queueDispatcher
}

func newFixture(transport *fakeTransport, opts ...Option) *fixture {
	f := &fixture{
		transport:  transport,
		picker:     &fakePicker{hour: 8, minute: 0},
		renderer:   newRecordingRenderer(),
		dispatcher: new(queueDispatcher),
	}

	opts = append([]Option{WithClock(utcClock()), WithRenderer(f.renderer), WithSecret(42)}, opts...)
	f.session = New(context.Background(), transport, f.picker, f.dispatcher, opts...)

	return f
}
