// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package genepred

import (
	"bytes"
	"strings"
	"testing"

	"github.com/biogo/biogo/io/featio/gff"
	"github.com/biogo/biogo/seq"
	"github.com/biogo/hts/fai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	basic    = "ENST01-1\tchr1\t+\t100\t500\t150\t450\t2\t100,300,\t200,500,"
	extended = "ENST02-1\tchr2\t-\t1000\t2000\t1000\t1000\t3\t1000,1400,1800,\t1100,1500,2000,\t0\tENSG02\tnone\tnone\t-1,-1,-1,"
)

func TestParse(t *testing.T) {
	got, err := Parse([]byte(basic))
	require.NoError(t, err)
	assert.Equal(t, Transcript{
		Name:       "ENST01-1",
		Chrom:      "chr1",
		Strand:     seq.Plus,
		TxStart:    100,
		TxEnd:      500,
		CdsStart:   150,
		CdsEnd:     450,
		ExonStarts: []int{100, 300},
		ExonEnds:   []int{200, 500},
	}, got)
	assert.Equal(t, basic, got.String())

	got, err = Parse([]byte(extended + "\n"))
	require.NoError(t, err)
	assert.True(t, got.Extended)
	assert.Equal(t, seq.Minus, got.Strand)
	assert.Equal(t, "ENSG02", got.Name2)
	assert.Equal(t, []int{-1, -1, -1}, got.ExonFrames)
	assert.Equal(t, extended, got.String())
}

func TestParseErrors(t *testing.T) {
	for _, line := range []string{
		"ENST01-1\tchr1\t+\t100",
		"ENST01-1\tchr1\tx\t100\t500\t150\t450\t2\t100,300,\t200,500,",
		"ENST01-1\tchr1\t+\t500\t100\t150\t450\t2\t100,300,\t200,500,",
		"ENST01-1\tchr1\t+\t100\t500\t150\t450\t3\t100,300,\t200,500,",
		"ENST01-1\tchr1\t+\t100\t500\t150\t450\t2\t100,x,\t200,500,",
		"ENST01-1\tchr1\t+\tstart\t500\t150\t450\t2\t100,300,\t200,500,",
	} {
		_, err := Parse([]byte(line))
		assert.Error(t, err, line)
	}
}

func TestRead(t *testing.T) {
	s, err := Read(strings.NewReader(basic + "\n\n" + extended + "\n"))
	require.NoError(t, err)
	require.Len(t, s, 2)
	assert.Equal(t, "chr2", s["ENST02-1"].Chrom)

	_, err = Read(strings.NewReader(basic + "\n" + basic + "\n"))
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	s, err := Read(strings.NewReader(basic + "\n" + extended + "\n"))
	require.NoError(t, err)

	idx := fai.Index{
		"chr1": {Name: "chr1", Length: 1000},
		"chr2": {Name: "chr2", Length: 2000},
	}
	assert.NoError(t, s.Check(idx))

	idx["chr2"] = fai.Record{Name: "chr2", Length: 1999}
	assert.Error(t, s.Check(idx))

	delete(idx, "chr2")
	assert.Error(t, s.Check(idx))
}

func TestFeatures(t *testing.T) {
	tx, err := Parse([]byte(extended))
	require.NoError(t, err)
	feats := tx.Features("transMap")
	require.Len(t, feats, 4)
	assert.Equal(t, "transcript", feats[0].Feature)
	assert.Equal(t, 1000, feats[0].FeatStart)
	assert.Equal(t, 2000, feats[0].FeatEnd)
	for i, f := range feats[1:] {
		assert.Equal(t, "exon", f.Feature)
		assert.Equal(t, tx.ExonStarts[i], f.FeatStart)
		assert.Equal(t, tx.ExonEnds[i], f.FeatEnd)
		assert.Equal(t, seq.Minus, f.FeatStrand)
		assert.Equal(t, `"ENSG02"`, f.FeatAttributes.Get("gene_id"))
	}

	var buf bytes.Buffer
	w := gff.NewWriter(&buf, 60, false)
	_, err = w.Write(feats[0])
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "chr2\ttransMap\ttranscript\t1001\t2000\t")
}
