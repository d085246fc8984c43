// Package classfile is the "classpath finder" and "class resolver"
// collaborator of spec §6, implemented rather than mocked (see
// SPEC_FULL.md's Domain Stack note): a small, real reader for a compact
// classfile format, enough to drive internal/typemap's TypeMap derivation.
// It deliberately does not attempt to be a production bytecode-format
// parser — full class-file parsing is out of scope per spec §1.
//
// Byte-cursor style grounded on vm/image_reader.go's readUint32/readBytes
// idiom.
package classfile

import (
	"encoding/binary"
	"fmt"

	"github.com/chazu/bootimage-builder/internal/fieldtype"
	"github.com/pkg/errors"
)

// Magic identifies a compiled class file for this tool.
var Magic = [4]byte{'K', 'L', 'A', 'S'}

var byteOrder = binary.BigEndian

// ErrInvalidMagic is returned when a class file does not start with Magic.
var ErrInvalidMagic = errors.New("classfile: invalid magic number")

// ErrUnexpectedEOF is returned when the class file is truncated.
var ErrUnexpectedEOF = errors.New("classfile: unexpected end of data")

// ParsedField is one declared instance or static field: a name and its
// semantic field type (spec §4.1's closed type set, internal/fieldtype).
type ParsedField struct {
	Name string
	Type fieldtype.Type
}

// ParsedClass is the minimal shape internal/typemap needs from a class
// file: a name, a superclass reference (by name, resolved later by the
// registry), instance and static field name lists in declaration order,
// and the constant-pool tag sequence (empty if the class carries none).
type ParsedClass struct {
	Name          string
	Namespace     string
	SuperclassRef string // empty for the root class
	InstVars      []ParsedField
	StaticVars    []ParsedField
	PoolTags      []byte // raw constant-pool tags, in pool order
}

// cursor is a read-only byte-cursor over one class file's bytes.
type cursor struct {
	data []byte
	pos  int
}

func (c *cursor) u8() (byte, error) {
	if c.pos+1 > len(c.data) {
		return 0, ErrUnexpectedEOF
	}
	v := c.data[c.pos]
	c.pos++
	return v, nil
}

func (c *cursor) u16() (uint16, error) {
	if c.pos+2 > len(c.data) {
		return 0, ErrUnexpectedEOF
	}
	v := byteOrder.Uint16(c.data[c.pos:])
	c.pos += 2
	return v, nil
}

func (c *cursor) bytes(n int) ([]byte, error) {
	if n < 0 || c.pos+n > len(c.data) {
		return nil, ErrUnexpectedEOF
	}
	v := c.data[c.pos : c.pos+n]
	c.pos += n
	return v, nil
}

func (c *cursor) str() (string, error) {
	n, err := c.u16()
	if err != nil {
		return "", err
	}
	b, err := c.bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *cursor) fieldList() ([]ParsedField, error) {
	n, err := c.u16()
	if err != nil {
		return nil, err
	}
	fields := make([]ParsedField, n)
	for i := range fields {
		name, err := c.str()
		if err != nil {
			return nil, err
		}
		tag, err := c.u8()
		if err != nil {
			return nil, err
		}
		t := fieldtype.Type(tag)
		if !t.Valid() || t == fieldtype.None {
			return nil, fmt.Errorf("classfile: field %q has invalid type tag %#02x", name, tag)
		}
		fields[i] = ParsedField{Name: name, Type: t}
	}
	return fields, nil
}

// Parse reads one class file's bytes into a ParsedClass. Malformed input
// (bad magic, truncated data) is returned as an error — the caller (the
// classpath finder driver) is responsible for treating it as fatal per
// spec §7's "Malformed class" row.
//
// Layout: magic(4) | namespace(str) | name(str) | superclassRef(str) |
// instVars(fieldList) | staticVars(fieldList) | poolTagCount(u16) |
// tags(u8 x N), where fieldList is count(u16) then, per field,
// name(str) followed by a one-byte fieldtype.Type tag.
func Parse(data []byte) (*ParsedClass, error) {
	c := &cursor{data: data}

	magic, err := c.bytes(4)
	if err != nil {
		return nil, err
	}
	if magic[0] != Magic[0] || magic[1] != Magic[1] || magic[2] != Magic[2] || magic[3] != Magic[3] {
		return nil, errors.Wrapf(ErrInvalidMagic, "got %q", magic)
	}

	pc := &ParsedClass{}
	if pc.Namespace, err = c.str(); err != nil {
		return nil, errors.Wrap(err, "namespace")
	}
	if pc.Name, err = c.str(); err != nil {
		return nil, errors.Wrap(err, "name")
	}
	if pc.SuperclassRef, err = c.str(); err != nil {
		return nil, errors.Wrap(err, "superclass")
	}
	if pc.InstVars, err = c.fieldList(); err != nil {
		return nil, errors.Wrap(err, "instance variables")
	}
	if pc.StaticVars, err = c.fieldList(); err != nil {
		return nil, errors.Wrap(err, "static variables")
	}
	poolCount, err := c.u16()
	if err != nil {
		return nil, errors.Wrap(err, "constant pool count")
	}
	pc.PoolTags = make([]byte, poolCount)
	for i := range pc.PoolTags {
		tag, err := c.u8()
		if err != nil {
			return nil, errors.Wrapf(err, "constant pool tag %d", i)
		}
		pc.PoolTags[i] = tag
	}

	return pc, nil
}

// QualifiedName returns "namespace/name", or just "name" for the default
// namespace.
func (pc *ParsedClass) QualifiedName() string {
	if pc.Namespace == "" {
		return pc.Name
	}
	return fmt.Sprintf("%s/%s", pc.Namespace, pc.Name)
}
