// Package compilerstub defines the Processor collaborator the bootimage
// builder delegates actual bytecode-to-machine-code compilation to (spec
// §6): compiling a resolved method to bytes, contributing any roots the
// compiler itself needs pinned in the image, and building the call table
// the code resolver later patches.
//
// Full bytecode compilation is out of this tool's scope (spec's
// Non-goals: "no bytecode interpretation/execution"). StubProcessor is a
// minimal, working Processor good enough to drive the rest of the
// pipeline end to end: every compiled method is a single target-word
// trampoline that a real backend would replace wholesale.
package compilerstub

import (
	"fmt"

	"github.com/chazu/bootimage-builder/internal/buildmodel"
	"github.com/chazu/bootimage-builder/internal/coderesolve"
	"github.com/chazu/bootimage-builder/internal/heapwalk"
	"github.com/chazu/bootimage-builder/internal/target"
)

// CompiledMethod is one method's compiled output: raw machine code plus
// the constants and calls the resolver must still patch in.
type CompiledMethod struct {
	Code      []byte
	Constants []coderesolve.Constant
	Calls     []coderesolve.Call
}

// Processor turns resolved classes and methods into machine code. The
// bootimage builder drives it in three phases: Initialize once, then
// CompileMethod per requested entry method (and per method reachable
// through MakeCallTable's transitive call graph), then VisitRoots once
// compilation is complete so any compiler-owned heap objects (e.g. a
// shared trampoline stub object) get walked too.
type Processor interface {
	Initialize(m target.Machine) error
	CompileMethod(class *buildmodel.ClassInfo, methodName, methodSpec string) (*CompiledMethod, error)
	VisitRoots(walker *heapwalk.Walker) error
	MakeCallTable(resolved map[string]*coderesolve.ListenPromise) ([]coderesolve.Call, error)
}

// StubProcessor is a minimal Processor: every method compiles to a
// single-word return trampoline, no additional roots, and an empty call
// table. It exists so the rest of the pipeline (constant resolution,
// code_map emission, image serialization) has real, if trivial, code
// bytes to work with.
type StubProcessor struct {
	machine target.Machine
}

// NewStubProcessor returns a StubProcessor. Call Initialize before use.
func NewStubProcessor() *StubProcessor {
	return &StubProcessor{}
}

func (p *StubProcessor) Initialize(m target.Machine) error {
	p.machine = m
	return nil
}

// CompileMethod emits one target word of zeroed code (a stand-in return
// trampoline) with no promise-backed constants. A real backend would
// replace this with the actual method body and would populate Constants
// for any embedded class/string/method references and Calls for every
// invocation the method makes.
func (p *StubProcessor) CompileMethod(class *buildmodel.ClassInfo, methodName, methodSpec string) (*CompiledMethod, error) {
	if class == nil {
		return nil, fmt.Errorf("compilerstub: cannot compile %s with a nil class", methodName)
	}
	return &CompiledMethod{
		Code: make([]byte, p.machine.WordBytes()),
	}, nil
}

func (p *StubProcessor) VisitRoots(walker *heapwalk.Walker) error {
	return nil
}

func (p *StubProcessor) MakeCallTable(resolved map[string]*coderesolve.ListenPromise) ([]coderesolve.Call, error) {
	return nil, nil
}
