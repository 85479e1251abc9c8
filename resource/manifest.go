// Package resource implements the native extension ABI: dynamically loaded
// plugins exposing opaque typed objects ("resources") with declared
// callable methods, per §4.7.
package resource

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/jsonc"
)

// Manifest is the JSON object an extension's C-string entry point returns,
// declaring its outcome/dumped/string accessors and the resource types it
// provides.
type Manifest struct {
	OkAccessor     string                `json:"ok_accessor"`
	ErrAccessor    string                `json:"err_accessor"`
	DropAccessor   string                `json:"drop_accessor"`
	DumpedAccessor string                `json:"dumped_accessor"`
	StringDrop     string                `json:"string_drop"`
	Resources      map[string]ResourceDecl `json:"resources"`
}

// ResourceDecl names the five lifecycle symbols an extension exports for one
// resource type, resolved via dynamic lookup against the plugin's symbol
// table.
type ResourceDecl struct {
	FromBytes  string `json:"fn_from_bytes"`
	Dump       string `json:"fn_dump"`
	Size       string `json:"fn_size"`
	GetMethod  string `json:"fn_get_method_def"`
	Drop       string `json:"fn_drop"`
}

// MethodDef is the JSON a resource's fn_get_method_def returns for one
// method name.
type MethodDef struct {
	InLayout  json.RawMessage `json:"in_layout"`
	OutLayout json.RawMessage `json:"out_layout"`
	FnPtr     string          `json:"fn_ptr"`
	StatusSlot int            `json:"status_slot"`
}

// ParseManifest tolerantly parses a manifest JSON document (extension
// authors hand-edit these; trailing commas and comments are common).
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(jsonc.ToJSON(data), &m); err != nil {
		return nil, fmt.Errorf("parse extension manifest: %w", err)
	}
	if len(m.Resources) == 0 {
		return nil, &PluginError{Kind: ManifestInvalid, Detail: "manifest declares no resources"}
	}
	return &m, nil
}
