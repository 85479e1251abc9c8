// Package layout implements the declarative buffer schema system: a tagged
// variant describing how a structured host value maps onto the flat
// float64-slot buffers a compiled function reads and writes.
package layout

import "fmt"

// Flavor is the tag of a Layout's variant.
type Flavor uint8

const (
	Unit Flavor = iota
	Scalar
	Bool
	DateTime
	Symbol
	List
	Struct
)

func (f Flavor) String() string {
	switch f {
	case Unit:
		return "unit"
	case Scalar:
		return "scalar"
	case Bool:
		return "bool"
	case DateTime:
		return "datetime"
	case Symbol:
		return "symbol"
	case List:
		return "list"
	case Struct:
		return "struct"
	default:
		return fmt.Sprintf("flavor(%d)", uint8(f))
	}
}

// Field is one named member of a Struct layout. Field order is significant:
// it defines encoding order.
type Field struct {
	Name   string
	Layout Layout
}

// Layout is a tagged variant; only the fields relevant to Flavor are
// meaningful, mirroring the node algebra's "tagged variant with a static
// table" shape rather than an interface hierarchy.
type Layout struct {
	Flavor Flavor

	// DateTime
	Format string

	// List
	Elem   *Layout
	Length int

	// Struct
	Fields []Field
}

// NewScalar, NewBool etc. are constructors for the leaf flavors; they read
// better at call sites than composite literals.
func NewScalar() Layout { return Layout{Flavor: Scalar} }
func NewBool() Layout   { return Layout{Flavor: Bool} }
func NewUnit() Layout   { return Layout{Flavor: Unit} }
func NewSymbol() Layout { return Layout{Flavor: Symbol} }

func NewDateTime(format string) Layout {
	return Layout{Flavor: DateTime, Format: format}
}

func NewList(elem Layout, length int) Layout {
	return Layout{Flavor: List, Elem: &elem, Length: length}
}

func NewStruct(fields ...Field) Layout {
	return Layout{Flavor: Struct, Fields: fields}
}

// FlatSlots returns the number of 8-byte float64 slots a value of this
// layout occupies when encoded.
func (l Layout) FlatSlots() int {
	switch l.Flavor {
	case Unit:
		return 0
	case Scalar, Bool, DateTime, Symbol:
		return 1
	case List:
		if l.Elem == nil {
			return 0
		}
		return l.Elem.FlatSlots() * l.Length
	case Struct:
		n := 0
		for _, f := range l.Fields {
			n += f.Layout.FlatSlots()
		}
		return n
	default:
		return 0
	}
}

// Size returns the flat buffer size in bytes: FlatSlots * 8.
func (l Layout) Size() int { return l.FlatSlots() * 8 }

// FieldByName returns the named field of a Struct layout.
func (l Layout) FieldByName(name string) (Field, bool) {
	for _, f := range l.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// IsSuperset reports whether other can be injected into l: flavors must
// match, and for structs every field of other present by name in l must
// itself be a superset of the corresponding field in other.
func (l Layout) IsSuperset(other Layout) bool {
	if l.Flavor != other.Flavor {
		return false
	}
	switch l.Flavor {
	case List:
		if l.Length != other.Length {
			return false
		}
		if l.Elem == nil || other.Elem == nil {
			return l.Elem == other.Elem
		}
		return l.Elem.IsSuperset(*other.Elem)
	case Struct:
		for _, of := range other.Fields {
			lf, ok := l.FieldByName(of.Name)
			if !ok || !lf.Layout.IsSuperset(of.Layout) {
				return false
			}
		}
		return true
	case DateTime:
		return l.Format == other.Format
	default:
		return true
	}
}
