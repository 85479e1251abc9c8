package resource

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"plugin"
	"sync"

	"github.com/sbl8/jyafn/env"
)

// NativeFn is the Go-plugin stand-in for the native "raw buffer in, raw
// buffer out, integer status" ABI (§3 Resource, §6 Call ABI): state is the
// resource's current serialized bytes, in is the method's encoded input
// buffer, out is the encoded output buffer and status is 0 on success.
// Extension authors export functions with this exact signature; the loader
// resolves them by name out of the plugin's manifest.
type NativeFn func(state []byte, in []byte) (out []byte, status int64)

// Extension is one loaded native plugin: its manifest plus the opened
// plugin, from which method trampolines are resolved by name on demand.
type Extension struct {
	Name     string
	Path     string
	Manifest *Manifest

	plug *plugin.Plugin
}

// resolve looks up symbol in the underlying plugin and type-asserts it to a
// NativeFn, wrapping a lookup miss as PluginError{LoadFailed}.
func (e *Extension) resolve(symbol string) (NativeFn, error) {
	sym, err := e.plug.Lookup(symbol)
	if err != nil {
		return nil, &PluginError{Kind: LoadFailed, Detail: fmt.Sprintf("symbol %q: %v", symbol, err)}
	}
	fn, ok := sym.(func(state []byte, in []byte) (out []byte, status int64))
	if !ok {
		return nil, &PluginError{Kind: ManifestInvalid, Detail: fmt.Sprintf("symbol %q has unexpected type", symbol)}
	}
	return fn, nil
}

// invoke calls a resolved NativeFn, converting any panic inside plugin code
// into a PluginError instead of letting it propagate into the caller's
// frame, per §4.7's panic-boundary requirement.
func invoke(fn NativeFn, state, in []byte) (out []byte, status int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PluginError{Kind: PanicInPlugin, Detail: fmt.Sprint(r)}
		}
	}()
	out, status = fn(state, in)
	return out, status, nil
}

// Loader loads extensions from JYAFN_PATH (or the default directory),
// reference-counting them so a given extension is only mapped into the
// process once. Go's plugin package offers no unload primitive, matching
// §5's "unloading is deferred to process exit" policy exactly: Release only
// decrements the count.
type Loader struct {
	mu      sync.Mutex
	log     *slog.Logger
	loaded  map[string]*loadedExtension
	searchPaths []string
}

type loadedExtension struct {
	ext  *Extension
	refs int
}

// NewLoader creates a Loader that searches env.ExtensionPaths() by default.
func NewLoader(log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}
	return &Loader{log: log, loaded: make(map[string]*loadedExtension), searchPaths: env.ExtensionPaths()}
}

// Load resolves name (without extension) to a .so in one of the loader's
// search paths, opening it at most once per process.
func (l *Loader) Load(name string) (*Extension, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry, ok := l.loaded[name]; ok {
		entry.refs++
		return entry.ext, nil
	}

	path, err := l.findExtension(name)
	if err != nil {
		return nil, err
	}

	l.log.Info("loading extension", "name", name, "path", path)
	plug, err := plugin.Open(path)
	if err != nil {
		return nil, &PluginError{Kind: LoadFailed, Detail: err.Error()}
	}

	manifestSym, err := plug.Lookup("Manifest")
	if err != nil {
		return nil, &PluginError{Kind: ManifestInvalid, Detail: fmt.Sprintf("no Manifest symbol: %v", err)}
	}
	manifestJSON, ok := manifestSym.(*string)
	if !ok {
		return nil, &PluginError{Kind: ManifestInvalid, Detail: "Manifest symbol is not *string"}
	}
	manifest, err := ParseManifest([]byte(*manifestJSON))
	if err != nil {
		return nil, err
	}

	ext := &Extension{Name: name, Path: path, Manifest: manifest, plug: plug}
	l.loaded[name] = &loadedExtension{ext: ext, refs: 1}
	return ext, nil
}

// Release decrements name's reference count. It never actually unmaps the
// plugin (Go provides no mechanism to); it exists so callers can track when
// a graph's last reference to an extension has gone away.
func (l *Loader) Release(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if entry, ok := l.loaded[name]; ok {
		entry.refs--
	}
}

func (l *Loader) findExtension(name string) (string, error) {
	for _, dir := range l.searchPaths {
		candidate := filepath.Join(dir, name+".so")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", &PluginError{Kind: LoadFailed, Detail: fmt.Sprintf("extension %q not found in %v", name, l.searchPaths)}
}
