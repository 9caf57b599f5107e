package tree

import (
	"regexp"
	"sort"

	"github.com/pkg/errors"

	"fracgraph/pkg/model"
)

var ErrNoAssociations = errors.New("tree references no feature besides its target")

// EmptyPolicy decides what happens to a tree whose association set is empty
type EmptyPolicy int

const (
	SkipEmpty EmptyPolicy = iota
	FailOnEmpty
)

func ParseEmptyPolicy(name string) (EmptyPolicy, error) {
	switch name {
	case "skip":
		return SkipEmpty, nil
	case "fail":
		return FailOnEmpty, nil
	}
	return SkipEmpty, errors.Errorf("unknown empty association policy %q (expected skip or fail)", name)
}

func (p EmptyPolicy) String() string {
	if p == FailOnEmpty {
		return "fail"
	}
	return "skip"
}

// Association is a tree's target feature together with the other features its body references
type Association struct {
	Target string
	// Associated is sorted and never contains Target
	Associated []string
	Line       int
}

type Extractor struct {
	features    *model.FeatureIndex
	namePattern *regexp.Regexp
}

// NewExtractor recognizes feature references as prefix followed by one or more digits.
func NewExtractor(features *model.FeatureIndex, prefix string) *Extractor {
	return &Extractor{
		features:    features,
		namePattern: regexp.MustCompile(regexp.QuoteMeta(prefix) + `\d+`),
	}
}

// Extract resolves the target of entry and collects the distinct features its
// body references. A result without associations is returned together with
// ErrNoAssociations.
func (e *Extractor) Extract(entry Entry) (Association, error) {
	target, err := e.features.Resolve(entry.Target)
	if err != nil {
		return Association{}, errors.Wrapf(err, "target of tree at line %d", entry.Line)
	}

	seen := map[string]struct{}{}
	for _, name := range e.namePattern.FindAllString(entry.Body, -1) {
		if !e.features.Contains(name) {
			return Association{}, errors.Wrapf(model.ErrUnknownFeature, "%q referenced by tree at line %d", name, entry.Line)
		}
		seen[name] = struct{}{}
	}
	delete(seen, target)

	associated := make([]string, 0, len(seen))
	for name := range seen {
		associated = append(associated, name)
	}
	sort.Strings(associated)

	a := Association{Target: target, Associated: associated, Line: entry.Line}
	if len(associated) == 0 {
		return a, errors.Wrapf(ErrNoAssociations, "tree for %s at line %d", target, entry.Line)
	}
	return a, nil
}
