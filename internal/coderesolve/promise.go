// Package coderesolve resolves the code-constant "promises" a compiled
// method may leave behind when it references something not yet known at
// compile time — another method's eventual address, or a heap object's
// eventual image offset (spec §4.5) — patching the emitted code buffer
// once every promise has a value.
package coderesolve

import "fmt"

// Promise is a value not yet known at the point code referencing it was
// generated. It becomes valid once something resolves it.
type Promise interface {
	Resolved() bool
	Value() (int64, error)
}

// Fixed is a Promise whose value was already known when it was created.
type Fixed int64

func (p Fixed) Resolved() bool          { return true }
func (p Fixed) Value() (int64, error)   { return int64(p), nil }

// ListenPromise is resolved later by an external caller — typically once
// compilation of the method it names has finished and the method's final
// code offset is known. Any number of other promises can chain onto it
// via Listen before that happens; resolving the promise resolves the
// whole chain (spec §4.5's "listen-promises (listener chains)").
type ListenPromise struct {
	resolved  bool
	value     int64
	listeners []*ListenPromise
}

// NewListenPromise returns an unresolved promise.
func NewListenPromise() *ListenPromise {
	return &ListenPromise{}
}

func (p *ListenPromise) Resolved() bool { return p.resolved }

func (p *ListenPromise) Value() (int64, error) {
	if !p.resolved {
		return 0, fmt.Errorf("coderesolve: promise read before it was resolved")
	}
	return p.value, nil
}

// Resolve fixes p's value and transitively resolves every promise
// chained onto it via Listen. Resolving an already-resolved promise a
// second time is a no-op — a method is compiled exactly once.
func (p *ListenPromise) Resolve(v int64) {
	if p.resolved {
		return
	}
	p.resolved = true
	p.value = v
	listeners := p.listeners
	p.listeners = nil
	for _, l := range listeners {
		l.Resolve(v)
	}
}

// Listen chains l onto p: when p resolves, l resolves to the same value.
// If p is already resolved, l resolves immediately.
func (p *ListenPromise) Listen(l *ListenPromise) {
	if p.resolved {
		l.Resolve(p.value)
		return
	}
	p.listeners = append(p.listeners, l)
}

// DelayedPromise adds a fixed offset to another promise's eventual value,
// resolving only once that base promise does (spec §4.5's
// "delayed-promises"): e.g. a call target expressed as "wherever this
// method lands, plus its prologue length".
type DelayedPromise struct {
	Base  Promise
	Delta int64
}

func (p *DelayedPromise) Resolved() bool { return p.Base.Resolved() }

func (p *DelayedPromise) Value() (int64, error) {
	v, err := p.Base.Value()
	if err != nil {
		return 0, err
	}
	return v + p.Delta, nil
}
