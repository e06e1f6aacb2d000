package service

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ludo-technologies/linecheck/domain"
	"gopkg.in/yaml.v3"
)

// BOMLoaderImpl reads BOM lists from JSON or YAML files. A document is either
// a bare list of items or a mapping with an "items" list.
type BOMLoaderImpl struct{}

// NewBOMLoader creates a new BOM loader
func NewBOMLoader() *BOMLoaderImpl {
	return &BOMLoaderImpl{}
}

type bomDocument struct {
	Items []domain.BOMItem `yaml:"items"`
}

// LoadBOM implements domain.BOMLoader
func (l *BOMLoaderImpl) LoadBOM(path string) ([]domain.BOMItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewFileNotFoundError(path, err)
	}
	items, err := ParseBOM(data)
	if err != nil {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("invalid BOM file %s", path), err)
	}
	return items, nil
}

// ParseBOM decodes a BOM document. JSON input is accepted as YAML.
func ParseBOM(data []byte) ([]domain.BOMItem, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return []domain.BOMItem{}, nil
	}

	var items []domain.BOMItem
	switch root.Content[0].Kind {
	case yaml.SequenceNode:
		if err := decodeStrict(data, &items); err != nil {
			return nil, err
		}
	case yaml.MappingNode:
		var doc bomDocument
		if err := decodeStrict(data, &doc); err != nil {
			return nil, err
		}
		items = doc.Items
	default:
		return nil, errors.New("expected a list of BOM items")
	}

	for i, it := range items {
		if it.BOMComponentID == "" {
			return nil, fmt.Errorf("item %d: bomComponentId is required", i)
		}
	}
	if items == nil {
		items = []domain.BOMItem{}
	}
	return items, nil
}

func decodeStrict(data []byte, out interface{}) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
