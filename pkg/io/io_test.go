package io

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"fracgraph/pkg/model"
)

func TestReadMetadata(t *testing.T) {
	records, err := ReadMetadata(strings.NewReader("f1\tnominal\t0,1\nf2\treal\n\nf3\tnominal\t0,1,2\n"))
	require.NoError(t, err)
	require.Equal(t, []model.MetadataRecord{
		{Name: "f1", Type: "nominal"},
		{Name: "f2", Type: "real"},
		{Name: "f3", Type: "nominal"},
	}, records)
}

func TestReadSampleClasses(t *testing.T) {
	classes, err := ReadSampleClasses(strings.NewReader("0\t1\tnorm\n1\t1\tanom\nsolo\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"norm", "anom", "solo"}, classes)
}

func TestReadSurprisals(t *testing.T) {
	m, err := ReadSurprisals(strings.NewReader("1\t2\t99\n3.5\t4e-1\t-1\n"), 2)
	require.NoError(t, err)
	rows, cols := m.Dims()
	require.Equal(t, 2, rows)
	require.Equal(t, 2, cols)
	require.Equal(t, []float64{1, 3.5}, []float64{m.At(0, 0), m.At(1, 0)})
	require.InDelta(t, 0.4, m.At(1, 1), 1e-12)
}

func TestReadSurprisals_Errors(t *testing.T) {
	_, err := ReadSurprisals(strings.NewReader("1\t2\n1\n1\tx\n1\t2\n"), 2)
	require.Error(t, err)

	errs := multierr.Errors(err)
	require.Equal(t, 2, len(errs))
	var dataError *DataError
	require.True(t, errors.As(errs[0], &dataError))
	require.Equal(t, 2, dataError.Line)
	require.True(t, errors.As(errs[1], &dataError))
	require.Equal(t, 3, dataError.Line)

	_, err = ReadSurprisals(strings.NewReader(""), 2)
	require.Error(t, err)
}

func TestReadSurprisals_NonFinite(t *testing.T) {
	_, err := ReadSurprisals(strings.NewReader("1\t2\nNaN\t2\n1\t+Inf\n1\t-inf\n"), 2)
	require.Error(t, err)

	errs := multierr.Errors(err)
	require.Equal(t, 3, len(errs))
	for i, e := range errs {
		var dataError *DataError
		require.True(t, errors.As(e, &dataError))
		require.Equal(t, i+2, dataError.Line)
		require.Contains(t, e.Error(), "non-finite")
	}
}

func TestLoadRun(t *testing.T) {
	data, err := LoadRun(NewRunFiles("../../datasets/snp"))
	require.NoError(t, err)
	require.Equal(t, 4, data.Features.Size())
	require.Equal(t, 7, len(data.SampleClasses))
	rows, cols := data.Surprisals.Dims()
	require.Equal(t, 7, rows)
	require.Equal(t, 4, cols)
	require.Contains(t, data.TreeLog, "Waffles Decision Tree Classifier")
}

func TestLoadFile_PrefixesFileName(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), MetadataFile)
	require.NoError(t, os.WriteFile(fileName, []byte("a\nb\n"), 0644))

	err := LoadFile(fileName, func(r io.Reader) error {
		_, err := ReadMetadata(r)
		return err
	})
	errs := multierr.Errors(err)
	require.Equal(t, 2, len(errs))
	for _, e := range errs {
		require.Contains(t, e.Error(), fileName)
	}

	err = LoadFile(filepath.Join(t.TempDir(), "missing"), func(r io.Reader) error { return nil })
	require.Error(t, err)
}
