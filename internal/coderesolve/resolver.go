package coderesolve

import (
	"fmt"

	"github.com/chazu/bootimage-builder/internal/bitmap"
	"github.com/chazu/bootimage-builder/internal/target"
)

// BootFlatConstant and BootHeapOffset name the two kinds of patched code
// word (spec §4.5): a flat constant and a heap offset. UpdateConstants
// writes each promise's value as it is, without OR-ing either of these
// values into it, and sets a code_map bit at the word position of every
// patched constant, whatever its kind.
const (
	BootFlatConstant = 0
	BootHeapOffset   = 1
)

// Resolver implements updateConstants (spec §4.5, Phase B): once every
// call promise has been resolved against its method's final address,
// it patches the code buffer at each recorded constant's offset and
// builds the code_map bitmap the boot loader relocates by.
type Resolver struct {
	machine target.Machine
	code    []byte
	codeMap *bitmap.Bitmap
}

// NewResolver returns a Resolver over an already-emitted code buffer.
func NewResolver(m target.Machine, code []byte) *Resolver {
	return &Resolver{
		machine: m,
		code:    code,
		codeMap: bitmap.New(m.WordsForBytes(len(code))),
	}
}

// ResolveCalls resolves every call's target promise via methodAddress
// (typically a lookup into the set of compiled methods' final image
// offsets) and patches the caller's code offset with the result.
func (r *Resolver) ResolveCalls(calls []Call, methodAddress func(*ListenPromise) (int64, error)) error {
	for _, call := range calls {
		v, err := methodAddress(call.Target)
		if err != nil {
			return fmt.Errorf("coderesolve: resolving call at code offset %d: %w", call.CodeOffset, err)
		}
		call.Target.Resolve(v)
		if err := r.patch(call.CodeOffset, v); err != nil {
			return err
		}
	}
	return nil
}

// UpdateConstants patches the code buffer at every constant's recorded
// offset with its now-resolved promise value, marking code_map at every
// patched offset regardless of the constant's Kind (spec §4.5 step 5):
// bootimage.cpp calls markBit unconditionally in both its heap-constants
// loop and its delayed/address-promise loop, so every patched word is
// live for the boot loader to walk, not only the ones tagged as heap
// references. Every promise must already be resolved (ResolveCalls, or
// whatever else produced it, must run first); an unresolved promise here
// means the compiler emitted a constant it never wired to a resolution
// path, which is fatal per spec §7.
func (r *Resolver) UpdateConstants(constants []Constant) error {
	for _, c := range constants {
		if !c.Promise.Resolved() {
			return fmt.Errorf("coderesolve: constant at code offset %d never resolved", c.CodeOffset)
		}
		v, err := c.Promise.Value()
		if err != nil {
			return fmt.Errorf("coderesolve: constant at code offset %d: %w", c.CodeOffset, err)
		}
		if err := r.patch(c.CodeOffset, v); err != nil {
			return err
		}
		r.codeMap.Set(c.CodeOffset / r.machine.WordBytes())
	}
	return nil
}

func (r *Resolver) patch(codeOffset int, v int64) error {
	wordBytes := r.machine.WordBytes()
	if codeOffset < 0 || codeOffset+wordBytes > len(r.code) {
		return fmt.Errorf("coderesolve: code offset %d out of range (code is %d bytes)", codeOffset, len(r.code))
	}
	r.machine.PutWord(r.code[codeOffset:], uint64(v))
	return nil
}

// CodeMap returns the accumulated code_map bitmap.
func (r *Resolver) CodeMap() *bitmap.Bitmap {
	return r.codeMap
}

// Code returns the patched code buffer.
func (r *Resolver) Code() []byte {
	return r.code
}
