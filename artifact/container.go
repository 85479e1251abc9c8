package artifact

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/sbl8/jyafn/graph"
	"github.com/sbl8/jyafn/layout"
	"github.com/sbl8/jyafn/mapping"
	"github.com/sbl8/jyafn/symtab"
)

// Save packages g as the zip artifact §4.6 describes: graph.bin plus one
// mappings/<id>.bin per declared mapping, one resources/<id>.bin per
// declared resource, and a metadata.json mirror of graph.bin's embedded
// metadata for external inspection without parsing the binary format.
func Save(g *graph.Graph, name string) ([]byte, error) {
	graphBin, err := EncodeGraphBin(g, name)
	if err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)

	if err := writeZipEntry(zw, "graph.bin", graphBin); err != nil {
		return nil, err
	}

	for i, m := range g.Mappings {
		if err := writeZipEntry(zw, fmt.Sprintf("mappings/%d.bin", i), m.Serialize()); err != nil {
			return nil, err
		}
	}

	for i, r := range g.Resources {
		if err := writeZipEntry(zw, fmt.Sprintf("resources/%d.bin", i), r.Bytes); err != nil {
			return nil, err
		}
	}

	metadataJSON, err := json.MarshalIndent(g.Metadata, "", "  ")
	if err != nil {
		return nil, errf(CorruptArtifact, "encode metadata.json: %v", err)
	}
	if err := writeZipEntry(zw, "metadata.json", metadataJSON); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, errf(CorruptArtifact, "close zip writer: %v", err)
	}
	return buf.Bytes(), nil
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return errf(CorruptArtifact, "create zip entry %q: %v", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return errf(CorruptArtifact, "write zip entry %q: %v", name, err)
	}
	return nil
}

// Load reads a zip artifact produced by Save and reconstructs a sealed
// Graph. When initialize is false, mapping tables are left empty (layouts
// and metadata are still fully populated) so a host can inspect a graph's
// shape without paying the cost of deserializing every mapping's sorted
// byte table — the "cheap inspection" mode §4.6 describes.
func Load(data []byte, initialize bool) (*graph.Graph, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errf(CorruptArtifact, "open zip: %v", err)
	}

	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		entries[f.Name] = f
	}

	graphFile, ok := entries["graph.bin"]
	if !ok {
		return nil, errf(CorruptArtifact, "missing graph.bin")
	}
	graphBin, err := readZipEntry(graphFile)
	if err != nil {
		return nil, err
	}

	decoded, err := DecodeGraphBin(graphBin)
	if err != nil {
		return nil, err
	}

	mappings := make([]*mapping.Mapping, len(decoded.MappingDescriptors))
	for i, desc := range decoded.MappingDescriptors {
		keyLayout, err := layout.FromJSON(desc.KeyLayout)
		if err != nil {
			return nil, errf(UnsupportedLayout, "mapping %q key layout: %v", desc.Name, err)
		}
		valueLayout, err := layout.FromJSON(desc.ValueLayout)
		if err != nil {
			return nil, errf(UnsupportedLayout, "mapping %q value layout: %v", desc.Name, err)
		}
		if !initialize {
			empty, err := mapping.New(desc.Name, keyLayout, valueLayout, nil, symtab.NewTop())
			if err != nil {
				return nil, errf(CorruptArtifact, "mapping %q: %v", desc.Name, err)
			}
			mappings[i] = empty
			continue
		}
		entryName := fmt.Sprintf("mappings/%d.bin", i)
		f, ok := entries[entryName]
		if !ok {
			return nil, errf(CorruptArtifact, "missing %s referenced by mapping %q", entryName, desc.Name)
		}
		rowData, err := readZipEntry(f)
		if err != nil {
			return nil, err
		}
		m, err := mapping.Deserialize(desc.Name, keyLayout, valueLayout, rowData)
		if err != nil {
			return nil, errf(CorruptArtifact, "deserialize mapping %q: %v", desc.Name, err)
		}
		mappings[i] = m
	}

	if initialize {
		for i, decl := range decoded.ResourceDecls {
			entryName := fmt.Sprintf("resources/%d.bin", i)
			f, ok := entries[entryName]
			if !ok {
				return nil, errf(CorruptArtifact, "missing %s referenced by resource %q", entryName, decl.Name)
			}
			blob, err := readZipEntry(f)
			if err != nil {
				return nil, err
			}
			decoded.ResourceDecls[i].Bytes = blob
		}
	}

	symbols := symtab.FromTop(decoded.TopSymbols)
	return graph.Reconstruct(decoded.Nodes, decoded.InputLayout, decoded.OutputLayout, decoded.Metadata, mappings, decoded.ResourceDecls, decoded.Tables, symbols)
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, errf(CorruptArtifact, "open zip entry %q: %v", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errf(CorruptArtifact, "read zip entry %q: %v", f.Name, err)
	}
	return data, nil
}
