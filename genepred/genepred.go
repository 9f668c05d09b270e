// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package genepred provides types and functions for reading and writing
// UCSC genePred transcript records.
package genepred

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/biogo/biogo/io/featio/gff"
	"github.com/biogo/biogo/seq"
	"github.com/biogo/hts/fai"
)

// Transcript is a genePred transcript record. Coordinates are zero-based
// and half-open.
type Transcript struct {
	Name       string
	Chrom      string
	Strand     seq.Strand
	TxStart    int
	TxEnd      int
	CdsStart   int
	CdsEnd     int
	ExonStarts []int
	ExonEnds   []int

	// Extended fields are only present
	// when Extended is true.
	Extended     bool
	Score        int
	Name2        string
	CdsStartStat string
	CdsEndStat   string
	ExonFrames   []int
}

// column indices for genePred and extended genePred.
const (
	name = iota
	chrom
	strand
	txStart
	txEnd
	cdsStart
	cdsEnd
	exonCount
	exonStarts
	exonEnds
	numBasicFields

	score = iota - 1
	name2
	cdsStartStat
	cdsEndStat
	exonFrames
	numExtendedFields
)

// Parse returns the transcript described by a genePred line.
func Parse(line []byte) (Transcript, error) {
	f := bytes.Split(bytes.TrimRight(line, "\r\n"), []byte("\t"))
	if len(f) != numBasicFields && len(f) != numExtendedFields {
		return Transcript{}, fmt.Errorf("genepred: unexpected number of fields: %d", len(f))
	}

	t := Transcript{
		Name:  string(f[name]),
		Chrom: string(f[chrom]),
	}
	switch string(f[strand]) {
	case "+":
		t.Strand = seq.Plus
	case "-":
		t.Strand = seq.Minus
	case ".":
		t.Strand = seq.None
	default:
		return Transcript{}, fmt.Errorf("genepred: invalid strand for %s: %q", t.Name, f[strand])
	}

	var err error
	for _, c := range []struct {
		dst   *int
		field int
	}{
		{dst: &t.TxStart, field: txStart},
		{dst: &t.TxEnd, field: txEnd},
		{dst: &t.CdsStart, field: cdsStart},
		{dst: &t.CdsEnd, field: cdsEnd},
	} {
		*c.dst, err = strconv.Atoi(string(f[c.field]))
		if err != nil {
			return Transcript{}, fmt.Errorf("genepred: error in %s: %w", t.Name, err)
		}
	}
	if t.TxEnd < t.TxStart {
		return Transcript{}, fmt.Errorf("genepred: inverted transcript %s: %d-%d", t.Name, t.TxStart, t.TxEnd)
	}
	n, err := strconv.Atoi(string(f[exonCount]))
	if err != nil {
		return Transcript{}, fmt.Errorf("genepred: error in %s: %w", t.Name, err)
	}
	t.ExonStarts, err = parseList(f[exonStarts])
	if err != nil {
		return Transcript{}, fmt.Errorf("genepred: error in %s exon starts: %w", t.Name, err)
	}
	t.ExonEnds, err = parseList(f[exonEnds])
	if err != nil {
		return Transcript{}, fmt.Errorf("genepred: error in %s exon ends: %w", t.Name, err)
	}
	if len(t.ExonStarts) != n || len(t.ExonEnds) != n {
		return Transcript{}, fmt.Errorf("genepred: exon count mismatch for %s: %d starts and %d ends for %d exons",
			t.Name, len(t.ExonStarts), len(t.ExonEnds), n)
	}

	if len(f) == numBasicFields {
		return t, nil
	}
	t.Extended = true
	t.Score, err = strconv.Atoi(string(f[score]))
	if err != nil {
		return Transcript{}, fmt.Errorf("genepred: error in %s: %w", t.Name, err)
	}
	t.Name2 = string(f[name2])
	t.CdsStartStat = string(f[cdsStartStat])
	t.CdsEndStat = string(f[cdsEndStat])
	t.ExonFrames, err = parseList(f[exonFrames])
	if err != nil {
		return Transcript{}, fmt.Errorf("genepred: error in %s exon frames: %w", t.Name, err)
	}
	if len(t.ExonFrames) != n {
		return Transcript{}, fmt.Errorf("genepred: exon frame count mismatch for %s: %d frames for %d exons",
			t.Name, len(t.ExonFrames), n)
	}
	return t, nil
}

func parseList(b []byte) ([]int, error) {
	b = bytes.TrimSuffix(b, []byte(","))
	if len(b) == 0 {
		return nil, nil
	}
	f := bytes.Split(b, []byte(","))
	v := make([]int, len(f))
	for i, e := range f {
		var err error
		v[i], err = strconv.Atoi(string(e))
		if err != nil {
			return nil, err
		}
	}
	return v, nil
}

func formatList(v []int) string {
	var buf strings.Builder
	for _, e := range v {
		buf.WriteString(strconv.Itoa(e))
		buf.WriteByte(',')
	}
	return buf.String()
}

// Fields returns the genePred fields of the transcript.
func (t Transcript) Fields() []string {
	var s string
	switch t.Strand {
	case seq.Plus:
		s = "+"
	case seq.Minus:
		s = "-"
	default:
		s = "."
	}
	f := []string{
		t.Name,
		t.Chrom,
		s,
		strconv.Itoa(t.TxStart),
		strconv.Itoa(t.TxEnd),
		strconv.Itoa(t.CdsStart),
		strconv.Itoa(t.CdsEnd),
		strconv.Itoa(len(t.ExonStarts)),
		formatList(t.ExonStarts),
		formatList(t.ExonEnds),
	}
	if !t.Extended {
		return f
	}
	return append(f,
		strconv.Itoa(t.Score),
		t.Name2,
		t.CdsStartStat,
		t.CdsEndStat,
		formatList(t.ExonFrames),
	)
}

// String returns the genePred line for the transcript without a
// trailing newline.
func (t Transcript) String() string {
	return strings.Join(t.Fields(), "\t")
}

// Features returns GFF features describing the transcript and its exons.
func (t Transcript) Features(source string) []*gff.Feature {
	attr := gff.Attributes{{Tag: "transcript_id", Value: strconv.Quote(t.Name)}}
	if t.Name2 != "" {
		attr = append(attr, gff.Attribute{Tag: "gene_id", Value: strconv.Quote(t.Name2)})
	}
	feats := []*gff.Feature{{
		SeqName:        t.Chrom,
		Source:         source,
		Feature:        "transcript",
		FeatStart:      t.TxStart,
		FeatEnd:        t.TxEnd,
		FeatStrand:     t.Strand,
		FeatFrame:      gff.NoFrame,
		FeatAttributes: attr,
	}}
	for i, s := range t.ExonStarts {
		feats = append(feats, &gff.Feature{
			SeqName:        t.Chrom,
			Source:         source,
			Feature:        "exon",
			FeatStart:      s,
			FeatEnd:        t.ExonEnds[i],
			FeatStrand:     t.Strand,
			FeatFrame:      gff.NoFrame,
			FeatAttributes: attr,
		})
	}
	return feats
}

// Set is a collection of transcripts keyed by name. For transMap output
// the name is the alignment ID.
type Set map[string]Transcript

// Read returns the transcripts in the genePred stream r. It is an error for
// a transcript name to be present more than once.
func Read(r io.Reader) (Set, error) {
	s := make(Set)
	sc := bufio.NewScanner(r)
	sc.Buffer(nil, 1<<24)
	var line int
	for sc.Scan() {
		line++
		b := sc.Bytes()
		if len(bytes.TrimSpace(b)) == 0 || b[0] == '#' {
			continue
		}
		t, err := Parse(b)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if _, exists := s[t.Name]; exists {
			return nil, fmt.Errorf("genepred: duplicate transcript name %s at line %d", t.Name, line)
		}
		s[t.Name] = t
	}
	err := sc.Err()
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Check returns an error if any transcript in s is on a sequence that
// is not in idx or extends beyond the end of its sequence.
func (s Set) Check(idx fai.Index) error {
	for _, t := range s {
		rec, ok := idx[t.Chrom]
		if !ok {
			return fmt.Errorf("genepred: transcript %s on unknown sequence %s", t.Name, t.Chrom)
		}
		if t.TxEnd > rec.Length {
			return fmt.Errorf("genepred: transcript %s extends beyond end of %s: %d > %d", t.Name, t.Chrom, t.TxEnd, rec.Length)
		}
	}
	return nil
}
