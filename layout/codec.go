package layout

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/sbl8/jyafn/symtab"
)

// Encode writes v into a freshly allocated buffer sized by l.Size() and
// returns it. Leaves are written left-to-right in structural order, each as
// an IEEE-754 float64 bit pattern (or its i64 bit-cast equivalent for
// DateTime/Symbol), per §4.2.
func (l Layout) Encode(v any, symbols *symtab.Table) ([]byte, error) {
	buf := make([]byte, l.Size())
	cursor := 0
	if err := l.encodeInto(v, buf, &cursor, symbols, "$"); err != nil {
		return nil, err
	}
	return buf, nil
}

func putSlot(buf []byte, cursor *int, bits uint64) {
	binary.LittleEndian.PutUint64(buf[*cursor:*cursor+8], bits)
	*cursor += 8
}

func (l Layout) encodeInto(v any, buf []byte, cursor *int, symbols *symtab.Table, path string) error {
	switch l.Flavor {
	case Unit:
		return nil
	case Scalar:
		f, ok := asFloat(v)
		if !ok {
			return errSizeMismatch(path, fmt.Errorf("expected scalar, got %T", v))
		}
		putSlot(buf, cursor, math.Float64bits(f))
		return nil
	case Bool:
		b, ok := v.(bool)
		if !ok {
			f, isFloat := asFloat(v)
			if !isFloat {
				return errSizeMismatch(path, fmt.Errorf("expected bool, got %T", v))
			}
			b = f != 0
		}
		val := 0.0
		if b {
			val = 1.0
		}
		putSlot(buf, cursor, math.Float64bits(val))
		return nil
	case DateTime:
		micros, err := datetimeToMicros(v, l.Format)
		if err != nil {
			return errParse(path, err)
		}
		putSlot(buf, cursor, uint64(micros))
		return nil
	case Symbol:
		s, ok := v.(string)
		if !ok {
			return errSizeMismatch(path, fmt.Errorf("expected symbol string, got %T", v))
		}
		id := symbols.Insert(s)
		putSlot(buf, cursor, uint64(int64(id)))
		return nil
	case List:
		elems, ok := v.([]any)
		if !ok {
			return errSizeMismatch(path, fmt.Errorf("expected list, got %T", v))
		}
		if len(elems) != l.Length {
			return errSizeMismatch(path, fmt.Errorf("expected %d elements, got %d", l.Length, len(elems)))
		}
		for i, e := range elems {
			if err := l.Elem.encodeInto(e, buf, cursor, symbols, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil
	case Struct:
		fields, ok := v.(map[string]any)
		if !ok {
			return errSizeMismatch(path, fmt.Errorf("expected struct, got %T", v))
		}
		for _, f := range l.Fields {
			fv, ok := fields[f.Name]
			if !ok {
				return errMissingField(path + "." + f.Name)
			}
			if err := f.Layout.encodeInto(fv, buf, cursor, symbols, path+"."+f.Name); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported layout flavor %v", l.Flavor)
	}
}

// Decode reverses Encode, producing a value tree shaped like Encode's input:
// map[string]any for Struct, []any for List, float64 for Scalar, bool for
// Bool, string for Symbol, and for DateTime a string formatted per l.Format
// (decodeFrom reformats the stored microseconds-since-epoch via
// microsToDatetime rather than returning a time.Time) — a round trip is
// exact only up to the precision l.Format retains.
func (l Layout) Decode(buf []byte, symbols *symtab.Table) (any, error) {
	cursor := 0
	return l.decodeFrom(buf, &cursor, symbols)
}

func getSlot(buf []byte, cursor *int) uint64 {
	bits := binary.LittleEndian.Uint64(buf[*cursor : *cursor+8])
	*cursor += 8
	return bits
}

func (l Layout) decodeFrom(buf []byte, cursor *int, symbols *symtab.Table) (any, error) {
	switch l.Flavor {
	case Unit:
		return nil, nil
	case Scalar:
		return math.Float64frombits(getSlot(buf, cursor)), nil
	case Bool:
		return math.Float64frombits(getSlot(buf, cursor)) != 0, nil
	case DateTime:
		micros := int64(getSlot(buf, cursor))
		return microsToDatetime(micros, l.Format), nil
	case Symbol:
		id := int(int64(getSlot(buf, cursor)))
		s, ok := symbols.String(id)
		if !ok {
			return "", nil
		}
		return s, nil
	case List:
		out := make([]any, l.Length)
		for i := range out {
			v, err := l.Elem.decodeFrom(buf, cursor, symbols)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case Struct:
		out := make(map[string]any, len(l.Fields))
		for _, f := range l.Fields {
			v, err := f.Layout.decodeFrom(buf, cursor, symbols)
			if err != nil {
				return nil, err
			}
			out[f.Name] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported layout flavor %v", l.Flavor)
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func datetimeToMicros(v any, format string) (int64, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UnixMicro(), nil
	case int64:
		return t, nil
	case float64:
		return int64(t), nil
	case string:
		parsed, err := time.Parse(format, t)
		if err != nil {
			return 0, err
		}
		return parsed.UnixMicro(), nil
	default:
		return 0, fmt.Errorf("unsupported datetime value %T", v)
	}
}

func microsToDatetime(micros int64, format string) string {
	return time.UnixMicro(micros).UTC().Format(format)
}
