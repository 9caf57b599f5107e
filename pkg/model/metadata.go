package model

import (
	"strconv"

	"github.com/pkg/errors"
)

// NominalType is the metadata type tag of the features that take part in the analysis
const NominalType = "nominal"

var ErrUnknownFeature = errors.New("unknown feature")

// NameMap implements a bidirectional mapping between a name and an index
type NameMap struct {
	NameToIndex map[string]int
	IndexToName map[int]string
}

func (f NameMap) Set(name string, index int) {
	f.NameToIndex[name] = index
	f.IndexToName[index] = name
}

func (f NameMap) Size() int {
	return len(f.IndexToName)
}

func (f NameMap) ContainsName(name string) (int, bool) {
	index, ok := f.NameToIndex[name]
	return index, ok
}

func NewNameMap() NameMap {
	return NameMap{
		NameToIndex: map[string]int{},
		IndexToName: map[int]string{},
	}
}

// MetadataRecord is one row of the metadata file
type MetadataRecord struct {
	Name string
	Type string
}

// FeatureIndex maps nominal feature names to their ordinal position and back.
type FeatureIndex struct {
	names NameMap
}

// NewFeatureIndex indexes the records typed nominal in the order they appear.
// Other types are ignored and do not consume an index.
func NewFeatureIndex(records []MetadataRecord) (*FeatureIndex, error) {
	idx := &FeatureIndex{names: NewNameMap()}
	for _, r := range records {
		if r.Type != NominalType {
			continue
		}
		if _, ok := idx.names.ContainsName(r.Name); ok {
			return nil, errors.Errorf("duplicate feature %q in metadata", r.Name)
		}
		idx.names.Set(r.Name, idx.names.Size())
	}
	return idx, nil
}

func (f *FeatureIndex) Size() int {
	return f.names.Size()
}

func (f *FeatureIndex) Index(name string) (int, error) {
	index, ok := f.names.ContainsName(name)
	if !ok {
		return 0, errors.Wrapf(ErrUnknownFeature, "feature name %q", name)
	}
	return index, nil
}

func (f *FeatureIndex) Name(index int) (string, error) {
	name, ok := f.names.IndexToName[index]
	if !ok {
		return "", errors.Wrapf(ErrUnknownFeature, "feature index %d", index)
	}
	return name, nil
}

// Contains reports whether name is an indexed feature
func (f *FeatureIndex) Contains(name string) bool {
	_, ok := f.names.ContainsName(name)
	return ok
}

// Names returns the feature names in index order
func (f *FeatureIndex) Names() []string {
	result := make([]string, f.names.Size())
	for i := range result {
		result[i] = f.names.IndexToName[i]
	}
	return result
}

// Resolve turns a tree target identifier into a feature name. Purely numeric
// identifiers are feature indexes, anything else is a feature name.
func (f *FeatureIndex) Resolve(identifier string) (string, error) {
	if isDigits(identifier) {
		index, err := strconv.Atoi(identifier)
		if err != nil {
			return "", errors.Wrapf(ErrUnknownFeature, "feature index %q", identifier)
		}
		return f.Name(index)
	}
	if _, err := f.Index(identifier); err != nil {
		return "", err
	}
	return identifier, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
