package classfile

import (
	"encoding/binary"
	"testing"

	"github.com/chazu/bootimage-builder/internal/fieldtype"
)

// classBuilder assembles raw .kls bytes for tests, mirroring Parse's own
// layout description.
type classBuilder struct {
	buf []byte
}

func (b *classBuilder) str(s string) {
	lenBuf := make([]byte, 2)
	binary.BigEndian.PutUint16(lenBuf, uint16(len(s)))
	b.buf = append(b.buf, lenBuf...)
	b.buf = append(b.buf, s...)
}

func (b *classBuilder) u16(v uint16) {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, v)
	b.buf = append(b.buf, buf...)
}

func (b *classBuilder) u8(v byte) {
	b.buf = append(b.buf, v)
}

func (b *classBuilder) fieldList(fields []ParsedField) {
	b.u16(uint16(len(fields)))
	for _, f := range fields {
		b.str(f.Name)
		b.u8(byte(f.Type))
	}
}

func buildClass(namespace, name, super string, instVars, staticVars []ParsedField, poolTags []byte) []byte {
	b := &classBuilder{}
	b.buf = append(b.buf, Magic[:]...)
	b.str(namespace)
	b.str(name)
	b.str(super)
	b.fieldList(instVars)
	b.fieldList(staticVars)
	b.u16(uint16(len(poolTags)))
	for _, t := range poolTags {
		b.u8(t)
	}
	return b.buf
}

func TestParseRoundTrip(t *testing.T) {
	data := buildClass("app", "Widget", "app/Base",
		[]ParsedField{{Name: "count", Type: fieldtype.I32}},
		[]ParsedField{{Name: "instances", Type: fieldtype.I32}},
		[]byte{TagUtf8, TagInteger},
	)

	pc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if pc.Namespace != "app" || pc.Name != "Widget" {
		t.Errorf("Namespace/Name = %q/%q, want app/Widget", pc.Namespace, pc.Name)
	}
	if pc.SuperclassRef != "app/Base" {
		t.Errorf("SuperclassRef = %q, want app/Base", pc.SuperclassRef)
	}
	if len(pc.InstVars) != 1 || pc.InstVars[0].Name != "count" || pc.InstVars[0].Type != fieldtype.I32 {
		t.Errorf("InstVars = %v, want [{count i32}]", pc.InstVars)
	}
	if len(pc.StaticVars) != 1 || pc.StaticVars[0].Name != "instances" {
		t.Errorf("StaticVars = %v, want [{instances i32}]", pc.StaticVars)
	}
	if len(pc.PoolTags) != 2 || pc.PoolTags[0] != TagUtf8 || pc.PoolTags[1] != TagInteger {
		t.Errorf("PoolTags = %v, want [%d %d]", pc.PoolTags, TagUtf8, TagInteger)
	}
}

func TestQualifiedName(t *testing.T) {
	withNS := &ParsedClass{Namespace: "app", Name: "Widget"}
	if got := withNS.QualifiedName(); got != "app/Widget" {
		t.Errorf("QualifiedName() = %q, want app/Widget", got)
	}
	noNS := &ParsedClass{Name: "Widget"}
	if got := noNS.QualifiedName(); got != "Widget" {
		t.Errorf("QualifiedName() = %q, want Widget", got)
	}
}

func TestParseInvalidMagic(t *testing.T) {
	data := []byte("XXXXrest of the data doesn't matter")
	if _, err := Parse(data); err == nil {
		t.Fatal("Parse should fail on bad magic")
	}
}

func TestParseTruncated(t *testing.T) {
	full := buildClass("", "Widget", "", nil, nil, nil)
	for cut := 0; cut < len(full); cut += 3 {
		if _, err := Parse(full[:cut]); err == nil {
			t.Errorf("Parse(data[:%d]) should fail on truncated input", cut)
		}
	}
}

func TestParseInvalidFieldTypeTag(t *testing.T) {
	b := &classBuilder{}
	b.buf = append(b.buf, Magic[:]...)
	b.str("")
	b.str("Bad")
	b.str("")
	b.u16(1)
	b.str("field")
	b.u8(0xFF) // not a valid fieldtype.Type
	b.u16(0)   // no static vars
	b.u16(0)   // no pool

	if _, err := Parse(b.buf); err == nil {
		t.Fatal("Parse should reject an invalid field type tag")
	}
}

func TestTrailingDataAfterParseIsIgnored(t *testing.T) {
	data := buildClass("", "Widget", "", nil, nil, nil)
	data = append(data, 0xDE, 0xAD, 0xBE, 0xEF) // trailing garbage
	if _, err := Parse(data); err != nil {
		t.Fatalf("Parse should ignore trailing bytes past the declared structure: %v", err)
	}
}
