package coderesolve

// ConstantKind distinguishes how a patched word must be interpreted once
// resolved (spec §4.5): a call target already expressed as a flat code
// offset, or a heap-relative object offset the boot loader still has to
// relocate against the image's load address.
type ConstantKind int

const (
	FlatConstant  ConstantKind = iota // BootFlatConstant: a flat value
	HeapReference                     // BootHeapOffset: a heap-relative offset
)

// Constant is one code-buffer patch site recorded while a method was
// compiled: the byte offset to patch, the promise supplying its
// eventual value, and how to interpret that value.
type Constant struct {
	CodeOffset int
	Promise    Promise
	Kind       ConstantKind
}

// Call is one call-site fixup: the caller's code offset waiting on the
// callee method's compiled address.
type Call struct {
	CodeOffset int
	Target     *ListenPromise
}
