// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package transmap resolves paralogous and split-gene alignments in transMap
// output.
//
// Paralogs are resolved using a per-biotype identity cutoff fitted to the
// distribution of 1-1 orthologous alignment identities, falling back to a
// composite synteny score. Genes whose transcripts map to disjoint genomic
// locations are resolved by clustering transcript loci and picking the
// cluster with the highest mean score.
package transmap

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidRange is returned when an alignment's composite score
	// lies outside [0,100].
	ErrInvalidRange = errors.New("transmap: score out of range")

	// ErrMissingTranscript is returned when an alignment has no
	// transcript locus.
	ErrMissingTranscript = errors.New("transmap: missing transcript")

	// ErrParalogyMismatch is returned when the paralogy count of an
	// alignment does not match the number of alignments for its
	// transcript.
	ErrParalogyMismatch = errors.New("transmap: paralogy count mismatch")

	// ErrDuplicateKey is returned when an output row key is not unique.
	ErrDuplicateKey = errors.New("transmap: duplicate result key")
)

// Class is the statistical classification of an alignment.
type Class int

const (
	Failing Class = iota
	Passing
)

func (c Class) String() string {
	switch c {
	case Failing:
		return "failing"
	case Passing:
		return "passing"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// MarshalText satisfies the encoding.TextMarshaler interface.
func (c Class) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText satisfies the encoding.TextUnmarshaler interface.
func (c *Class) UnmarshalText(text []byte) error {
	switch string(text) {
	case "failing":
		*c = Failing
	case "passing":
		*c = Passing
	default:
		return fmt.Errorf("transmap: unknown transcript class: %q", text)
	}
	return nil
}

// ParalogStatus is the outcome of paralog resolution for a transcript.
type ParalogStatus int

const (
	// NoParalogs indicates the transcript had a single alignment.
	NoParalogs ParalogStatus = iota
	Confident
	NotConfident
)

func (s ParalogStatus) String() string {
	switch s {
	case NoParalogs:
		return ""
	case Confident:
		return "Confident"
	case NotConfident:
		return "NotConfident"
	default:
		return fmt.Sprintf("ParalogStatus(%d)", int(s))
	}
}

// MarshalText satisfies the encoding.TextMarshaler interface.
func (s ParalogStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText satisfies the encoding.TextUnmarshaler interface.
func (s *ParalogStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "":
		*s = NoParalogs
	case "Confident":
		*s = Confident
	case "NotConfident":
		*s = NotConfident
	default:
		return fmt.Errorf("transmap: unknown paralog status: %q", text)
	}
	return nil
}

// Evaluation is a row of the alignment evaluation table.
type Evaluation struct {
	AlignmentID      string
	TranscriptID     string
	TransMapIdentity float64
	TransMapCoverage float64
	Synteny          int

	// Paralogy is the number of alignments
	// of the transcript.
	Paralogy int
}

// Annotation is a row of the reference annotation table.
type Annotation struct {
	TranscriptID      string
	GeneID            string
	TranscriptBiotype string
}

// AlignmentRecord is a candidate alignment of a source transcript
// and the values derived for it during filtering.
type AlignmentRecord struct {
	AlignmentID       string
	TranscriptID      string
	GeneID            string
	TranscriptBiotype string
	TransMapIdentity  float64
	TransMapCoverage  float64
	Synteny           int
	Paralogy          int

	Score           float64
	TranscriptClass Class
	ParalogStatus   ParalogStatus
}

// Join returns the alignment records obtained by joining eval and ref on
// transcript ID. Evaluations without an annotation are omitted. Join
// returns an error if ref holds a transcript more than once, if the
// paralogy count of an evaluation does not agree with the number of
// evaluations for the transcript, or with an error wrapping ErrInvalidRange
// if an evaluation metric is outside its valid range.
func Join(eval []Evaluation, ref []Annotation) ([]AlignmentRecord, error) {
	annot := make(map[string]Annotation, len(ref))
	for _, a := range ref {
		if _, exists := annot[a.TranscriptID]; exists {
			return nil, fmt.Errorf("transmap: duplicate annotation for transcript %s", a.TranscriptID)
		}
		annot[a.TranscriptID] = a
	}

	n := make(map[string]int)
	for _, e := range eval {
		n[e.TranscriptID]++
	}

	recs := make([]AlignmentRecord, 0, len(eval))
	for _, e := range eval {
		err := checkRange(e.AlignmentID, e.TransMapCoverage, e.TransMapIdentity, e.Synteny)
		if err != nil {
			return nil, err
		}
		if e.Paralogy != n[e.TranscriptID] {
			return nil, fmt.Errorf("%w: %s has paralogy %d but %d alignments", ErrParalogyMismatch, e.AlignmentID, e.Paralogy, n[e.TranscriptID])
		}
		a, ok := annot[e.TranscriptID]
		if !ok {
			continue
		}
		recs = append(recs, AlignmentRecord{
			AlignmentID:       e.AlignmentID,
			TranscriptID:      e.TranscriptID,
			GeneID:            a.GeneID,
			TranscriptBiotype: a.TranscriptBiotype,
			TransMapIdentity:  e.TransMapIdentity,
			TransMapCoverage:  e.TransMapCoverage,
			Synteny:           e.Synteny,
			Paralogy:          e.Paralogy,
		})
	}
	return recs, nil
}

// Config is the configuration for a filtering run.
type Config struct {
	// Genome is the name of the target genome.
	// It is only used for logging.
	Genome string

	// RemoveSplitGenes specifies that transcripts
	// outside the best supported location of a
	// split gene are removed.
	RemoveSplitGenes bool

	// Log is the destination for progress logging.
	// If nil, the logrus standard logger is used.
	Log logrus.FieldLogger
}

func (c Config) logger() logrus.FieldLogger {
	l := c.Log
	if l == nil {
		l = logrus.StandardLogger()
	}
	return l.WithField("genome", c.Genome)
}

// groupBy returns the indices of recs grouped by the key returned by fn
// and the keys in sorted order.
func groupBy(recs []AlignmentRecord, fn func(AlignmentRecord) string) (map[string][]int, []string) {
	groups := make(map[string][]int)
	var keys []string
	for i, r := range recs {
		k := fn(r)
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], i)
	}
	sort.Strings(keys)
	return groups, keys
}
