package surprisal

import (
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"fracgraph/pkg/model"
)

// Aggregator reduces the surprisal scores of one feature over a partition of samples
type Aggregator int

const (
	Median Aggregator = iota
	Mean
)

var aggregatorNames = map[string]Aggregator{
	"median": Median,
	"mean":   Mean,
}

func ParseAggregator(name string) (Aggregator, error) {
	a, ok := aggregatorNames[name]
	if !ok {
		return Median, errors.Errorf("unknown aggregator %q (expected median or mean)", name)
	}
	return a, nil
}

func (a Aggregator) String() string {
	switch a {
	case Median:
		return "median"
	case Mean:
		return "mean"
	default:
		return "unknown"
	}
}

// Reduce applies the aggregator to values, which must not be empty.
func (a Aggregator) Reduce(values []float64) float64 {
	switch a {
	case Mean:
		return stat.Mean(values, nil)
	default:
		return median(values)
	}
}

// median interpolates the two middle values of an even-length sequence
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return stat.Mean(sorted[n/2-1:n/2+1], nil)
}

// Partition holds the surprisal columns of the normal and anomalous samples
type Partition struct {
	Normal    *mat.Dense
	Anomalous *mat.Dense
}

// Split separates the rows of surprisals by class label. Rows and labels are
// matched by position.
func Split(surprisals *mat.Dense, classes []string, normalClass string) (*Partition, error) {
	rows, cols := surprisals.Dims()
	if rows != len(classes) {
		return nil, errors.Errorf("surprisal matrix has %d rows but %d sample classes were read", rows, len(classes))
	}

	var normal, anomalous []float64
	for i, class := range classes {
		row := surprisals.RawRowView(i)
		if class == normalClass {
			normal = append(normal, row...)
		} else {
			anomalous = append(anomalous, row...)
		}
	}
	if len(normal) == 0 {
		return nil, errors.Errorf("no samples of the normal class %q", normalClass)
	}
	if len(anomalous) == 0 {
		return nil, errors.Errorf("no anomalous samples (every sample is of class %q)", normalClass)
	}

	return &Partition{
		Normal:    mat.NewDense(len(normal)/cols, cols, normal),
		Anomalous: mat.NewDense(len(anomalous)/cols, cols, anomalous),
	}, nil
}

func (p *Partition) NormalCount() int {
	r, _ := p.Normal.Dims()
	return r
}

func (p *Partition) AnomalousCount() int {
	r, _ := p.Anomalous.Dims()
	return r
}

// Table maps every feature to its adjusted surprisal, the anomalous aggregate
// minus the normal aggregate.
type Table struct {
	names  []string
	values []float64
	byName map[string]float64
}

// NewTable computes the adjusted surprisal of every column of the partition.
// Column i belongs to the feature with index i.
func NewTable(features *model.FeatureIndex, p *Partition, aggregator Aggregator) (*Table, error) {
	_, cols := p.Normal.Dims()
	if cols != features.Size() {
		return nil, errors.Errorf("surprisal matrix has %d columns for %d features", cols, features.Size())
	}

	t := &Table{
		names:  features.Names(),
		values: make([]float64, cols),
		byName: make(map[string]float64, cols),
	}
	for i := 0; i < cols; i++ {
		normal := mat.Col(nil, i, p.Normal)
		anomalous := mat.Col(nil, i, p.Anomalous)
		t.values[i] = aggregator.Reduce(anomalous) - aggregator.Reduce(normal)
		t.byName[t.names[i]] = t.values[i]
	}
	return t, nil
}

func (t *Table) Size() int {
	return len(t.values)
}

// At returns the feature name and adjusted surprisal at position i
func (t *Table) At(i int) (string, float64) {
	return t.names[i], t.values[i]
}

func (t *Table) Lookup(name string) (float64, error) {
	v, ok := t.byName[name]
	if !ok {
		return 0, errors.Wrapf(model.ErrUnknownFeature, "no adjusted surprisal for %q", name)
	}
	return v, nil
}
