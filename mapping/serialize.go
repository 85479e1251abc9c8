package mapping

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/sbl8/jyafn/layout"
)

// Serialize writes the mapping's sorted key/value byte table in the format
// stored at mappings/<id>.bin in an artifact: a row count followed by
// length-prefixed (key, value) byte pairs in sorted order, so a reader can
// reconstruct the table (and its binary-search invariant) without replaying
// the original Entry list.
func (m *Mapping) Serialize() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(len(m.keys)))
	for i := range m.keys {
		binary.Write(&buf, binary.LittleEndian, uint32(len(m.keys[i])))
		buf.Write(m.keys[i])
		binary.Write(&buf, binary.LittleEndian, uint32(len(m.values[i])))
		buf.Write(m.values[i])
	}
	return buf.Bytes()
}

// Deserialize reconstructs a Mapping's sorted key/value rows from bytes
// produced by Serialize. The caller supplies name/keyLayout/valueLayout
// separately since those live in graph.bin's side tables, not the per-id
// mapping file.
func Deserialize(name string, keyLayout, valueLayout layout.Layout, data []byte) (*Mapping, error) {
	r := bytes.NewReader(data)
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("mapping %q: read row count: %w", name, err)
	}
	m := &Mapping{Name: name, KeyLayout: keyLayout, ValueLayout: valueLayout}
	for i := uint32(0); i < count; i++ {
		key, err := readFrame(r)
		if err != nil {
			return nil, fmt.Errorf("mapping %q: read key %d: %w", name, i, err)
		}
		value, err := readFrame(r)
		if err != nil {
			return nil, fmt.Errorf("mapping %q: read value %d: %w", name, i, err)
		}
		m.keys = append(m.keys, key)
		m.values = append(m.values, value)
	}
	return m, nil
}

func readFrame(r *bytes.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := r.Read(buf); err != nil && n > 0 {
		return nil, err
	}
	return buf, nil
}
