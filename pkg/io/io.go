package io

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"

	"fracgraph/pkg/model"
)

// File names FRaC writes into a run directory
const (
	MetadataFile   = "metadata"
	TestsetFile    = "testset"
	SurprisalsFile = "frac_out_termwise"
	TreeLogFile    = "frac_log"
)

type RunFiles struct {
	Metadata   string
	Testset    string
	Surprisals string
	TreeLog    string
}

func NewRunFiles(dir string) RunFiles {
	return RunFiles{
		Metadata:   filepath.Join(dir, MetadataFile),
		Testset:    filepath.Join(dir, TestsetFile),
		Surprisals: filepath.Join(dir, SurprisalsFile),
		TreeLog:    filepath.Join(dir, TreeLogFile),
	}
}

// DataError reports a malformed row. Line is 1-based.
type DataError struct {
	Line int
	Err  error
}

func (d *DataError) Error() string {
	return fmt.Sprintf("line %d: %s", d.Line, d.Err)
}

func (d *DataError) Unwrap() error {
	return d.Err
}

// NewTSVReader reads tab separated records of varying length. Blank lines are skipped.
func NewTSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true
	return reader
}

// ForEachRecord calls fn for every record of reader. Errors returned by fn are
// collected so that every malformed row gets reported.
func ForEachRecord(reader *csv.Reader, fn func(record []string) error) error {
	var errs error
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return multierr.Append(errs, err)
		}
		line, _ := reader.FieldPos(0)
		if err := fn(record); err != nil {
			errs = multierr.Append(errs, &DataError{Line: line, Err: err})
		}
	}
	return errs
}

// ReadMetadata reads (name, type, ...) rows.
func ReadMetadata(r io.Reader) ([]model.MetadataRecord, error) {
	var records []model.MetadataRecord
	err := ForEachRecord(NewTSVReader(r), func(record []string) error {
		if len(record) < 2 {
			return fmt.Errorf("expected at least 2 columns, found %d", len(record))
		}
		records = append(records, model.MetadataRecord{Name: record[0], Type: record[1]})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ReadSampleClasses returns the last column of every row.
func ReadSampleClasses(r io.Reader) ([]string, error) {
	var classes []string
	err := ForEachRecord(NewTSVReader(r), func(record []string) error {
		classes = append(classes, record[len(record)-1])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return classes, nil
}

// ReadSurprisals reads one row per sample and keeps the first featureCount
// columns. Trailing columns are ignored.
func ReadSurprisals(r io.Reader, featureCount int) (*mat.Dense, error) {
	var data []float64
	rows := 0
	err := ForEachRecord(NewTSVReader(r), func(record []string) error {
		if len(record) < featureCount {
			return fmt.Errorf("expected at least %d surprisal columns, found %d", featureCount, len(record))
		}
		row := make([]float64, featureCount)
		for i := range row {
			value, err := strconv.ParseFloat(record[i], 64)
			if err != nil {
				return fmt.Errorf("error parsing surprisal in column %d: %w", i+1, err)
			}
			if math.IsNaN(value) || math.IsInf(value, 0) {
				return fmt.Errorf("non-finite surprisal %q in column %d", record[i], i+1)
			}
			row[i] = value
		}
		data = append(data, row...)
		rows++
		return nil
	})
	if err != nil {
		return nil, err
	}
	if rows == 0 || featureCount == 0 {
		return nil, fmt.Errorf("empty surprisal matrix (%d rows, %d features)", rows, featureCount)
	}
	return mat.NewDense(rows, featureCount, data), nil
}

func ReadTreeLog(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("error reading tree log: %w", err)
	}
	return string(data), nil
}

// LoadFile opens fileName and hands it to read. Every error read reports is
// prefixed with the file name.
func LoadFile(fileName string, read func(io.Reader) error) error {
	file, err := os.Open(fileName)
	if err != nil {
		return fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	var errs error
	for _, err := range multierr.Errors(read(file)) {
		errs = multierr.Append(errs, fmt.Errorf("error reading %s: %w", fileName, err))
	}
	return errs
}

// RunData holds the fully materialized inputs of one run directory
type RunData struct {
	Features      *model.FeatureIndex
	SampleClasses []string
	Surprisals    *mat.Dense
	TreeLog       string
}

// LoadRun reads every input of a run. Nothing is computed until all files are read.
func LoadRun(files RunFiles) (*RunData, error) {
	data := &RunData{}

	err := LoadFile(files.Metadata, func(r io.Reader) error {
		records, err := ReadMetadata(r)
		if err != nil {
			return err
		}
		data.Features, err = model.NewFeatureIndex(records)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = LoadFile(files.Testset, func(r io.Reader) (err error) {
		data.SampleClasses, err = ReadSampleClasses(r)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = LoadFile(files.Surprisals, func(r io.Reader) (err error) {
		data.Surprisals, err = ReadSurprisals(r, data.Features.Size())
		return err
	})
	if err != nil {
		return nil, err
	}

	err = LoadFile(files.TreeLog, func(r io.Reader) (err error) {
		data.TreeLog, err = ReadTreeLog(r)
		return err
	})
	if err != nil {
		return nil, err
	}

	return data, nil
}
