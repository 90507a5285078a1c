package metrics

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Value is one extracted metric. It serializes as [description, value].
type Value struct {
	Description string
	Value       string
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{v.Description, v.Value})
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("metric value: expected [description, value], got %d elements", len(pair))
	}
	v.Description, v.Value = pair[0], pair[1]
	return nil
}

// Category maps metric id to value.
type Category map[string]Value

// Document is the per-file metrics document: scalar generic metrics plus one
// map per category.
type Document struct {
	Generic    map[string]string
	Categories map[string]Category
}

// NewDocument returns an empty document with initialized maps.
func NewDocument() Document {
	return Document{Generic: map[string]string{}, Categories: map[string]Category{}}
}

// CategoryNames returns the category keys, sorted.
func (d Document) CategoryNames() []string {
	names := make([]string, 0, len(d.Categories))
	for k := range d.Categories {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (d Document) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(d.Categories)+1)
	generic := d.Generic
	if generic == nil {
		generic = map[string]string{}
	}
	obj[GenericCategory] = generic
	for name, cat := range d.Categories {
		if name == GenericCategory {
			return nil, fmt.Errorf("category %q is reserved", GenericCategory)
		}
		obj[name] = cat
	}
	return json.Marshal(obj)
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = NewDocument()
	for name, msg := range raw {
		if name == GenericCategory {
			if err := json.Unmarshal(msg, &d.Generic); err != nil {
				return fmt.Errorf("generic metrics: %w", err)
			}
			continue
		}
		var cat Category
		if err := json.Unmarshal(msg, &cat); err != nil {
			return fmt.Errorf("category %s: %w", name, err)
		}
		d.Categories[name] = cat
	}
	return nil
}

// Assemble builds a document from the generic metrics, the main report
// categories, the auxiliary log counters and any extra categories. Sources are
// applied in that order and an already present key is never overwritten.
func Assemble(generic map[string]string, main map[string]Category, aux map[string]string, extra ...map[string]Category) Document {
	doc := NewDocument()
	for k, v := range generic {
		doc.Generic[k] = v
	}
	for k, v := range aux {
		if _, ok := doc.Generic[k]; !ok {
			doc.Generic[k] = v
		}
	}
	for _, src := range append([]map[string]Category{main}, extra...) {
		for name, cat := range src {
			dst, ok := doc.Categories[name]
			if !ok {
				dst = make(Category, len(cat))
				doc.Categories[name] = dst
			}
			for id, v := range cat {
				if _, exists := dst[id]; !exists {
					dst[id] = v
				}
			}
		}
	}
	return doc
}
