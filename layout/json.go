package layout

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/jsonc"
)

// wireLayout is the JSON-serializable shadow of Layout; Flavor is spelled
// out as a string so graph.bin's embedded layout JSON and hand-edited
// fixture files stay human-readable.
type wireLayout struct {
	Flavor string       `json:"flavor"`
	Format string       `json:"format,omitempty"`
	Elem   *wireLayout  `json:"elem,omitempty"`
	Length int          `json:"length,omitempty"`
	Fields []wireField  `json:"fields,omitempty"`
}

type wireField struct {
	Name   string     `json:"name"`
	Layout wireLayout `json:"layout"`
}

func (l Layout) toWire() wireLayout {
	w := wireLayout{Flavor: l.Flavor.String(), Format: l.Format, Length: l.Length}
	if l.Elem != nil {
		e := l.Elem.toWire()
		w.Elem = &e
	}
	for _, f := range l.Fields {
		w.Fields = append(w.Fields, wireField{Name: f.Name, Layout: f.Layout.toWire()})
	}
	return w
}

func flavorFromString(s string) (Flavor, error) {
	switch s {
	case "unit":
		return Unit, nil
	case "scalar":
		return Scalar, nil
	case "bool":
		return Bool, nil
	case "datetime":
		return DateTime, nil
	case "symbol":
		return Symbol, nil
	case "list":
		return List, nil
	case "struct":
		return Struct, nil
	default:
		return 0, fmt.Errorf("unknown layout flavor %q", s)
	}
}

func (w wireLayout) toLayout() (Layout, error) {
	flavor, err := flavorFromString(w.Flavor)
	if err != nil {
		return Layout{}, err
	}
	l := Layout{Flavor: flavor, Format: w.Format, Length: w.Length}
	if w.Elem != nil {
		elem, err := w.Elem.toLayout()
		if err != nil {
			return Layout{}, err
		}
		l.Elem = &elem
	}
	for _, wf := range w.Fields {
		fl, err := wf.Layout.toLayout()
		if err != nil {
			return Layout{}, err
		}
		l.Fields = append(l.Fields, Field{Name: wf.Name, Layout: fl})
	}
	return l, nil
}

// ToJSON renders the layout's schema (not a value) as JSON.
func (l Layout) ToJSON() ([]byte, error) {
	return json.Marshal(l.toWire())
}

// FromJSON parses a layout schema from JSON, tolerating the trailing
// commas and `//`/`/* */` comments a hand-edited fixture file may contain
// (github.com/tidwall/jsonc strips those before decoding).
func FromJSON(data []byte) (Layout, error) {
	var w wireLayout
	if err := json.Unmarshal(jsonc.ToJSON(data), &w); err != nil {
		return Layout{}, fmt.Errorf("parse layout json: %w", err)
	}
	return w.toLayout()
}
