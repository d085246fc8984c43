// Package typemapreport dumps a fully-populated TypeMap registry to CBOR,
// for the -typemap-report debugging flag (spec §6 supplement): a compact,
// stable snapshot of exactly how every class was laid out for the target
// machine, without re-running the builder under a debugger.
//
// Adapted from vm/dist/wire.go's canonical CBOR encode-mode setup and
// keyasint struct tag style.
package typemapreport

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/bootimage-builder/internal/typemap"
)

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	encMode = em
}

// FieldReport is one field's entry in a ClassReport.
type FieldReport struct {
	Type         string `cbor:"1,keyasint"`
	BuildOffset  int    `cbor:"2,keyasint"`
	TargetOffset int    `cbor:"3,keyasint"`
}

// ClassReport is the reported shape of one registered TypeMap.
type ClassReport struct {
	ClassName        string        `cbor:"1,keyasint"`
	Kind             string        `cbor:"2,keyasint"`
	BuildFixedWords  int           `cbor:"3,keyasint"`
	TargetFixedWords int           `cbor:"4,keyasint"`
	Fields           []FieldReport `cbor:"5,keyasint"`
	HasArray         bool          `cbor:"6,keyasint"`
	ArrayElementType string        `cbor:"7,keyasint,omitempty"`
}

// Report is the top-level document written by -typemap-report.
type Report struct {
	Instances  []ClassReport `cbor:"1,keyasint"`
	Singletons []ClassReport `cbor:"2,keyasint"`
	Pools      []ClassReport `cbor:"3,keyasint"`
	Builtins   []ClassReport `cbor:"4,keyasint"`
}

func kindName(k typemap.Kind) string {
	switch k {
	case typemap.Normal:
		return "normal"
	case typemap.Singleton:
		return "singleton"
	case typemap.Pool:
		return "pool"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func toClassReport(tm *typemap.TypeMap) ClassReport {
	fields := make([]FieldReport, len(tm.Fields))
	for i, f := range tm.Fields {
		fields[i] = FieldReport{
			Type:         f.Type.String(),
			BuildOffset:  f.BuildOffset,
			TargetOffset: f.TargetOffset,
		}
	}
	cr := ClassReport{
		ClassName:        tm.ClassName,
		Kind:             kindName(tm.Kind),
		BuildFixedWords:  tm.BuildFixedWords,
		TargetFixedWords: tm.TargetFixedWords,
		Fields:           fields,
		HasArray:         tm.HasArray(),
	}
	if cr.HasArray {
		cr.ArrayElementType = tm.ArrayElementType.String()
	}
	return cr
}

// Build produces a Report from a fully-populated registry.
func Build(reg *typemap.Registry) Report {
	var r Report
	for _, tm := range reg.Instance {
		r.Instances = append(r.Instances, toClassReport(tm))
	}
	for _, tm := range reg.Singleton {
		r.Singletons = append(r.Singletons, toClassReport(tm))
	}
	for _, tm := range reg.Pool {
		r.Pools = append(r.Pools, toClassReport(tm))
	}
	for _, tm := range reg.ByName {
		r.Builtins = append(r.Builtins, toClassReport(tm))
	}
	return r
}

// Marshal encodes a Report to canonical CBOR.
func Marshal(r Report) ([]byte, error) {
	return encMode.Marshal(r)
}
