package resource

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/sbl8/jyafn/layout"
)

// Handle is an opaque plugin-owned object (§3 Resource): an extension
// identifier, a resource-type name, its serialized bytes for re-hydration,
// a method-lookup capability, and its reported heap size. ID is a random
// identifier generated when the handle is created, for logging/tracing
// within one process; it is not part of the wire format.
type Handle struct {
	ID              uuid.UUID
	ExtensionName   string
	TypeName        string
	SerializedBytes []byte
	HeapSize        int

	ext  *Extension
	decl ResourceDecl
}

// FromBytes re-hydrates a resource of typeName from blob using the named
// extension's fn_from_bytes trampoline.
func FromBytes(ext *Extension, typeName string, blob []byte) (*Handle, error) {
	decl, ok := ext.Manifest.Resources[typeName]
	if !ok {
		return nil, &PluginError{Kind: ManifestInvalid, Detail: fmt.Sprintf("unknown resource type %q", typeName)}
	}
	fn, err := ext.resolve(decl.FromBytes)
	if err != nil {
		return nil, err
	}
	out, status, err := invoke(fn, nil, blob)
	if err != nil {
		return nil, err
	}
	if status != 0 {
		return nil, &PluginError{Kind: LoadFailed, Detail: fmt.Sprintf("from_bytes returned status %d", status)}
	}

	sizeFn, err := ext.resolve(decl.Size)
	if err != nil {
		return nil, err
	}
	sizeOut, _, err := invoke(sizeFn, out, nil)
	if err != nil {
		return nil, err
	}
	heapSize := 0
	if len(sizeOut) >= 8 {
		heapSize = int(uint64(sizeOut[0]) | uint64(sizeOut[1])<<8 | uint64(sizeOut[2])<<16 | uint64(sizeOut[3])<<24)
	}

	return &Handle{
		ID:              uuid.New(),
		ExtensionName:   ext.Name,
		TypeName:        typeName,
		SerializedBytes: out,
		HeapSize:        heapSize,
		ext:             ext,
		decl:            decl,
	}, nil
}

// Dump returns the resource's bytes for re-serialization into an artifact's
// resources/<id>.bin entry.
func (h *Handle) Dump() ([]byte, error) {
	fn, err := h.ext.resolve(h.decl.Dump)
	if err != nil {
		return nil, err
	}
	out, status, err := invoke(fn, h.SerializedBytes, nil)
	if err != nil {
		return nil, err
	}
	if status != 0 {
		return nil, &PluginError{Kind: LoadFailed, Detail: fmt.Sprintf("dump returned status %d", status)}
	}
	return out, nil
}

// Method describes one callable method of a resource, resolved from the
// extension's fn_get_method_def trampoline.
type Method struct {
	Name        string
	InputLayout  layout.Layout
	OutputLayout layout.Layout
	StatusSlot   int
	call         NativeFn
}

// GetMethod resolves name to a callable Method via the extension's
// fn_get_method_def trampoline.
func (h *Handle) GetMethod(name string) (*Method, error) {
	fn, err := h.ext.resolve(h.decl.GetMethod)
	if err != nil {
		return nil, err
	}
	out, status, err := invoke(fn, h.SerializedBytes, []byte(name))
	if err != nil {
		return nil, err
	}
	if status != 0 {
		return nil, &PluginError{Kind: ManifestInvalid, Detail: fmt.Sprintf("unknown method %q", name)}
	}

	var def MethodDef
	if err := json.Unmarshal(out, &def); err != nil {
		return nil, &PluginError{Kind: ManifestInvalid, Detail: fmt.Sprintf("malformed method def: %v", err)}
	}
	inLayout, err := layout.FromJSON(def.InLayout)
	if err != nil {
		return nil, err
	}
	outLayout, err := layout.FromJSON(def.OutLayout)
	if err != nil {
		return nil, err
	}
	callFn, err := h.ext.resolve(def.FnPtr)
	if err != nil {
		return nil, err
	}
	return &Method{
		Name:         name,
		InputLayout:  inLayout,
		OutputLayout: outLayout,
		StatusSlot:   def.StatusSlot,
		call:         callFn,
	}, nil
}

// Call invokes the method against the resource's current state, returning
// its raw output buffer.
func (h *Handle) Call(m *Method, in []byte) ([]byte, error) {
	out, status, err := invoke(m.call, h.SerializedBytes, in)
	if err != nil {
		return nil, err
	}
	if status != 0 {
		return nil, &PluginError{Kind: LoadFailed, Detail: fmt.Sprintf("method %q returned status %d", m.Name, status)}
	}
	return out, nil
}

// Drop releases the resource. Plugins are reference-counted at the
// extension level (Loader.Release), so Drop here is a no-op placeholder for
// symmetry with the native ABI's fn_drop; Go's garbage collector reclaims
// the Handle itself once unreferenced.
func (h *Handle) Drop() {}
