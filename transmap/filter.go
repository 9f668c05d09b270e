// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transmap

import (
	"fmt"
	"sort"
)

// Metrics holds the filtering metrics for a genome.
type Metrics struct {
	Paralogy   ParalogMetrics   `json:"Paralogy"`
	SplitGenes SplitGeneMetrics `json:"Split Genes"`
}

// Result is the outcome of filtering transMap alignments.
type Result struct {
	Metrics Metrics

	// Rows is the filtering results table.
	Rows []Row

	// Cutoffs holds the identity cutoff
	// fitted for each biotype.
	Cutoffs []BiotypeCutoff

	// Alignments holds the IDs of the alignments
	// that survived filtering in the order of Rows.
	Alignments []string
}

// Filter joins the alignment evaluations in eval with the reference
// annotations in ref and resolves paralogous alignments and split genes.
// Transcript loci for split gene resolution are obtained from loc.
func Filter(eval []Evaluation, ref []Annotation, loc Locator, cfg Config) (*Result, error) {
	recs, err := Join(eval, ref)
	if err != nil {
		return nil, err
	}
	cfg.logger().Infof("filtering %d alignments", len(recs))

	classified, cutoffs := FitDistributions(recs, cfg)

	paralogMetrics, resolved, err := ResolveParalogs(classified, cfg)
	if err != nil {
		return nil, fmt.Errorf("paralog resolution: %w", err)
	}

	splitMetrics, split, err := ResolveSplitGenes(resolved, loc, cfg)
	if err != nil {
		return nil, fmt.Errorf("split gene resolution: %w", err)
	}

	rows, err := Rows(split)
	if err != nil {
		return nil, err
	}
	alignments := make([]string, len(rows))
	for i, r := range rows {
		alignments[i] = r.AlignmentID
	}

	return &Result{
		Metrics: Metrics{
			Paralogy:   paralogMetrics,
			SplitGenes: splitMetrics,
		},
		Rows:       rows,
		Cutoffs:    cutoffs,
		Alignments: alignments,
	}, nil
}

// Row is a row of the filtering results table.
type Row struct {
	GeneID               string
	TranscriptID         string
	AlignmentID          string
	TranscriptClass      Class
	ParalogStatus        ParalogStatus
	GeneAlternateContigs string
	SplitGene            bool
}

// Rows returns the results table for recs, sorted by transcript ID and then
// alignment ID. It is an error for recs to hold more than one record with
// the same transcript and alignment IDs.
func Rows(recs []SplitRecord) ([]Row, error) {
	rows := make([]Row, len(recs))
	for i, r := range recs {
		rows[i] = Row{
			GeneID:               r.GeneID,
			TranscriptID:         r.TranscriptID,
			AlignmentID:          r.AlignmentID,
			TranscriptClass:      r.TranscriptClass,
			ParalogStatus:        r.ParalogStatus,
			GeneAlternateContigs: r.AlternateContigs,
			SplitGene:            r.SplitGene,
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TranscriptID != rows[j].TranscriptID {
			return rows[i].TranscriptID < rows[j].TranscriptID
		}
		return rows[i].AlignmentID < rows[j].AlignmentID
	})
	for i := 1; i < len(rows); i++ {
		if rows[i].TranscriptID == rows[i-1].TranscriptID && rows[i].AlignmentID == rows[i-1].AlignmentID {
			return nil, fmt.Errorf("%w: (%s, %s)", ErrDuplicateKey, rows[i].TranscriptID, rows[i].AlignmentID)
		}
	}
	return rows, nil
}
