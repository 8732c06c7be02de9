package lnqm

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// schemaFile is the YAML form of a schema.
type schemaFile struct {
	Fields []fieldYAML `yaml:"fields"`
}

type fieldYAML struct {
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"`
	Elem        string `yaml:"elem,omitempty"`
	Stride      int    `yaml:"stride,omitempty"`
	Unit        string `yaml:"unit,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// LoadSchema reads a schema from a YAML file.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	s, err := ParseSchema(data)
	if err != nil {
		return nil, fmt.Errorf("parse schema file %s: %w", path, err)
	}
	return s, nil
}

// ParseSchema parses a YAML schema of the form
//
//	fields:
//	  - name: uid
//	    kind: text
//	  - name: coord
//	    kind: numeric
//	    elem: float64
//	    stride: 3
//	    unit: Bohr
func ParseSchema(data []byte) (*Schema, error) {
	var sf schemaFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, err
	}

	fields := make([]Field, 0, len(sf.Fields))
	for i, fy := range sf.Fields {
		kind, err := ParseKind(fy.Kind)
		if err != nil {
			return nil, fmt.Errorf("fields[%d]: %w", i, err)
		}
		elem, err := ParseElemType(fy.Elem)
		if err != nil {
			return nil, fmt.Errorf("fields[%d]: %w", i, err)
		}
		fields = append(fields, Field{
			Name:        fy.Name,
			Kind:        kind,
			Elem:        elem,
			Stride:      fy.Stride,
			Unit:        fy.Unit,
			Description: fy.Description,
		})
	}
	return NewSchema(fields...)
}

// MarshalYAML implements yaml.Marshaler.
func (s *Schema) MarshalYAML() (any, error) {
	sf := schemaFile{Fields: make([]fieldYAML, 0, s.Len())}
	for _, f := range s.Fields() {
		fy := fieldYAML{
			Name:        f.Name,
			Kind:        f.Kind.String(),
			Unit:        f.Unit,
			Description: f.Description,
		}
		if f.Kind == KindNumeric {
			if f.Elem != ElemAny {
				fy.Elem = f.Elem.String()
			}
			if f.Stride > 1 {
				fy.Stride = f.Stride
			}
		}
		sf.Fields = append(sf.Fields, fy)
	}
	return sf, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Schema) UnmarshalYAML(node *yaml.Node) error {
	data, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	parsed, err := ParseSchema(data)
	if err != nil {
		return err
	}
	*s = *parsed
	return nil
}
