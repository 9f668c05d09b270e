// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kortschak/tmfilter/genepred"
	"github.com/kortschak/tmfilter/internal/evaldb"
	"github.com/kortschak/tmfilter/internal/store"
	"github.com/kortschak/tmfilter/transmap"
)

var genePredLines = []string{
	"A-1\tchr1\t+\t100\t200\t100\t200\t1\t100,\t200,",
	"A-2\tchr2\t+\t100\t200\t100\t200\t1\t100,\t200,",
	"B-1\tchr1\t+\t150\t300\t150\t300\t1\t150,\t300,",
	"C-1\tchr9\t-\t5000\t6000\t5000\t6000\t2\t5000,5800,\t5100,6000,",
}

func evaluation(aln, tx string, identity, coverage float64, synteny, paralogy int) []evaldb.Evaluation {
	return []evaldb.Evaluation{
		{AlignmentID: aln, TranscriptID: tx, Classifier: evaldb.Identity, Value: identity},
		{AlignmentID: aln, TranscriptID: tx, Classifier: evaldb.Coverage, Value: coverage},
		{AlignmentID: aln, TranscriptID: tx, Classifier: evaldb.Synteny, Value: float64(synteny)},
		{AlignmentID: aln, TranscriptID: tx, Classifier: evaldb.Paralogy, Value: float64(paralogy)},
	}
}

func writeInputs(t *testing.T, dir string) options {
	t.Helper()

	refPath := filepath.Join(dir, "ref.db")
	ref, err := evaldb.Open(refPath)
	require.NoError(t, err)
	defer evaldb.Close(ref)
	require.NoError(t, ref.AutoMigrate(&evaldb.Annotation{}))
	annot := []evaldb.Annotation{
		{TranscriptID: "A", GeneID: "G1", TranscriptBiotype: "protein_coding"},
		{TranscriptID: "B", GeneID: "G1", TranscriptBiotype: "protein_coding"},
		{TranscriptID: "C", GeneID: "G2", TranscriptBiotype: "protein_coding"},
	}
	require.NoError(t, ref.Create(&annot).Error)

	dbPath := filepath.Join(dir, "genome.db")
	db, err := evaldb.Open(dbPath)
	require.NoError(t, err)
	defer evaldb.Close(db)
	require.NoError(t, db.AutoMigrate(&evaldb.Evaluation{}))
	var rows []evaldb.Evaluation
	rows = append(rows, evaluation("A-1", "A", 97, 100, 5, 2)...)
	rows = append(rows, evaluation("A-2", "A", 80, 100, 1, 2)...)
	rows = append(rows, evaluation("B-1", "B", 99, 100, 6, 1)...)
	rows = append(rows, evaluation("C-1", "C", 98, 100, 6, 1)...)
	require.NoError(t, db.Create(&rows).Error)

	gpPath := filepath.Join(dir, "tm.gp")
	require.NoError(t, os.WriteFile(gpPath, []byte(strings.Join(genePredLines, "\n")+"\n"), 0o664))

	faiPath := filepath.Join(dir, "genome.fa.fai")
	require.NoError(t, os.WriteFile(faiPath, []byte("chr1\t10000\t6\t60\t61\nchr2\t10000\t10178\t60\t61\nchr9\t10000\t20350\t60\t61\n"), 0o664))

	return options{
		refDB:            refPath,
		db:               dbPath,
		genePred:         gpPath,
		genome:           "test",
		out:              filepath.Join(dir, "filtered.gp"),
		removeSplitGenes: true,
		metrics:          filepath.Join(dir, "metrics.json"),
		results:          filepath.Join(dir, "results.db"),
		cutoffs:          filepath.Join(dir, "cutoffs.db"),
		fai:              faiPath,
		gff:              filepath.Join(dir, "filtered.gff"),
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	o := writeInputs(t, dir)
	require.NoError(t, run(o))

	out, err := os.Open(o.out)
	require.NoError(t, err)
	defer out.Close()
	filtered, err := genepred.Read(out)
	require.NoError(t, err)
	assert.Len(t, filtered, 3)
	for _, id := range []string{"A-1", "B-1", "C-1"} {
		assert.Contains(t, filtered, id)
	}

	rows, err := store.ReadResults(o.results)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "A-1", rows[0].AlignmentID)
	assert.Equal(t, transmap.Confident, rows[0].ParalogStatus)
	assert.Equal(t, transmap.NoParalogs, rows[1].ParalogStatus)

	cutoffs, err := store.ReadCutoffs(o.cutoffs)
	require.NoError(t, err)
	assert.Equal(t, []transmap.BiotypeCutoff{{Biotype: "protein_coding", Cutoff: cutoffs[0].Cutoff, Fitted: true}}, cutoffs)

	b, err := os.ReadFile(o.metrics)
	require.NoError(t, err)
	var metrics map[string]transmap.Metrics
	require.NoError(t, json.Unmarshal(b, &metrics))
	require.Contains(t, metrics, "test")
	assert.Equal(t, 1, metrics["test"].Paralogy["protein_coding"].Discarded)

	g, err := os.ReadFile(o.gff)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(g), "\ttranscript\t"))
	assert.Equal(t, 4, strings.Count(string(g), "\texon\t"))
}

func TestRunOutOfBounds(t *testing.T) {
	dir := t.TempDir()
	o := writeInputs(t, dir)
	require.NoError(t, os.WriteFile(o.fai, []byte("chr1\t10000\t6\t60\t61\n"), 0o664))
	assert.Error(t, run(o))
}

func TestOptionsFrom(t *testing.T) {
	v := viper.New()
	v.Set("ref-db", "ref.db")
	v.Set("genome", "mm10")
	_, err := optionsFrom(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--db --genepred --out")

	v.Set("db", "mm10.db")
	v.Set("genepred", "mm10.gp")
	v.Set("out", "mm10.filtered.gp")
	v.Set("resolve-split-genes", true)
	o, err := optionsFrom(v)
	require.NoError(t, err)
	assert.Equal(t, "mm10", o.genome)
	assert.True(t, o.removeSplitGenes)
}
