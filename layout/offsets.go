package layout

// FieldOffset returns the byte offset and size of name within a Struct
// layout's flat encoding, walking fields in declared order (encoding
// order). Only top-level field names are addressable; this mirrors how
// graph.Builder.PushInput/SetOutput name buffer positions.
func (l Layout) FieldOffset(name string) (offset, size int, ok bool) {
	if l.Flavor != Struct {
		return 0, 0, false
	}
	off := 0
	for _, f := range l.Fields {
		sz := f.Layout.Size()
		if f.Name == name {
			return off, sz, true
		}
		off += sz
	}
	return 0, 0, false
}
