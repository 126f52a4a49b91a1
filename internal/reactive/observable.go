package reactive

import "errors"

// MaxCascade bounds how many times an observable may be re-notified because
// its own listeners keep changing it.
const MaxCascade = 32

// ErrCycle is the panic value raised when an observable keeps changing
// itself from its own listeners.
var ErrCycle = errors.New("reactive: observable changed by its own listeners too many times")

// Listenable is anything a value-less listener can subscribe to.
type Listenable interface {
	Subscribe(fn func())
}

// Observable is a mutable typed cell that reports changes to its listeners.
type Observable[T comparable] struct {
	value     T
	listeners []func(prev, cur T)

	// notifying is set while listeners run; a Set during that window is
	// deferred until the current fan-out completes.
	notifying bool
	pending   bool
	pendingAt T
}

// New returns an observable holding initial.
func New[T comparable](initial T) *Observable[T] {
	return &Observable[T]{value: initial}
}

// Value returns the current value.
func (o *Observable[T]) Value() T {
	return o.value
}

// Set stores v and notifies listeners when it differs from the current value.
func (o *Observable[T]) Set(v T) {
	if o.notifying {
		o.pending = true
		o.pendingAt = v

		return
	}

	if v == o.value {
		return
	}

	prev := o.value
	o.value = v
	o.notify(prev, v)
}

// Listen registers fn for every future change.
func (o *Observable[T]) Listen(fn func(prev, cur T)) {
	o.listeners = append(o.listeners, fn)
}

// Subscribe registers fn, discarding the values.
func (o *Observable[T]) Subscribe(fn func()) {
	o.Listen(func(T, T) { fn() })
}

// Init fires every listener once with the current value as both arguments.
func (o *Observable[T]) Init() {
	if o.notifying {
		return
	}

	o.notify(o.value, o.value)
}

func (o *Observable[T]) notify(prev, cur T) {
	for range MaxCascade {
		o.fanOut(prev, cur)

		if !o.pending {
			return
		}

		o.pending = false
		if o.pendingAt == o.value {
			return
		}

		prev, cur = o.value, o.pendingAt
		o.value = cur
	}

	panic(ErrCycle)
}

// fanOut runs every listener once. A panicking listener leaves the
// observable usable.
func (o *Observable[T]) fanOut(prev, cur T) {
	o.notifying = true
	completed := false

	defer func() {
		o.notifying = false
		if !completed {
			o.pending = false
		}
	}()

	for _, fn := range o.listeners {
		fn(prev, cur)
	}

	completed = true
}
