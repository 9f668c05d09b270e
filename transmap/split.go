// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transmap

import (
	"fmt"
	"sort"
	"strings"
)

// SplitGeneStatus describes whether the gene of a transcript was found
// at more than one genomic location.
type SplitGeneStatus struct {
	// AlternateContigs is a comma separated list of
	// the chromosomes other than the chosen location
	// that the gene mapped to. It is only set for
	// transcripts at the chosen location of a gene
	// split across chromosomes.
	AlternateContigs string

	// SplitGene is true if the gene mapped to more than
	// one location on a single chromosome.
	SplitGene bool
}

// SplitRecord is an alignment record with its split gene status.
type SplitRecord struct {
	AlignmentRecord
	SplitGeneStatus
}

// SplitGeneMetrics holds the outcome of split gene resolution.
type SplitGeneMetrics struct {
	ContigSplit      int `json:"Number of contig split genes"`
	IntraContigSplit int `json:"Number of intra-contig split genes"`

	// Removed is only set when split gene
	// removal was requested.
	Removed *int `json:"Number of transcripts removed,omitempty"`
}

// ResolveSplitGenes finds genes in recs whose transcripts map to more than
// one location and chooses the location cluster with the highest mean score.
// Ties are resolved in favor of the first cluster by chromosome name and
// position. Transcripts in the chosen cluster of a gene split across
// chromosomes are labelled with the other chromosomes of the gene. If
// cfg.RemoveSplitGenes is true, transcripts outside the chosen cluster are
// removed. Transcript loci are obtained from loc; an alignment
// without a locus is an error.
//
// The returned records are ordered by gene ID.
func ResolveSplitGenes(recs []AlignmentRecord, loc Locator, cfg Config) (SplitGeneMetrics, []SplitRecord, error) {
	log := cfg.logger()

	var (
		metrics SplitGeneMetrics
		removed int
	)
	groups, genes := groupBy(recs, func(r AlignmentRecord) string { return r.GeneID })
	out := make([]SplitRecord, 0, len(recs))
	for _, gene := range genes {
		idx := groups[gene]
		loci := make([]Locus, len(idx))
		for j, i := range idx {
			id := recs[i].AlignmentID
			l, ok := loc.Locus(id)
			if !ok {
				return SplitGeneMetrics{}, nil, fmt.Errorf("%w: no locus for alignment %s of gene %s", ErrMissingTranscript, id, gene)
			}
			if l.End < l.Start {
				return SplitGeneMetrics{}, nil, fmt.Errorf("transmap: inverted locus for alignment %s: %s:%d-%d", id, l.Chrom, l.Start, l.End)
			}
			loci[j] = l
		}

		clusters, err := Clusters(loci)
		if err != nil {
			return SplitGeneMetrics{}, nil, err
		}
		if len(clusters) == 1 {
			for _, i := range idx {
				out = append(out, SplitRecord{AlignmentRecord: recs[i]})
			}
			continue
		}

		best := bestCluster(clusters, recs, idx)

		var alternates string
		chroms := distinctChroms(loci)
		if len(chroms) > 1 {
			metrics.ContigSplit++
			alt := chroms[:0]
			for _, c := range chroms {
				if c != clusters[best].Chrom {
					alt = append(alt, c)
				}
			}
			alternates = strings.Join(alt, ",")
		}
		split := sharesChrom(clusters)
		if split {
			metrics.IntraContigSplit++
		}

		keep := make(map[int]bool, len(clusters[best].Members))
		for _, m := range clusters[best].Members {
			keep[m] = true
		}
		for j, i := range idx {
			status := SplitGeneStatus{SplitGene: split}
			switch {
			case keep[j]:
				status.AlternateContigs = alternates
			case cfg.RemoveSplitGenes:
				removed++
				continue
			}
			out = append(out, SplitRecord{AlignmentRecord: recs[i], SplitGeneStatus: status})
		}
	}

	if cfg.RemoveSplitGenes {
		metrics.Removed = &removed
		log.Infof("%d genes for %s have transcripts split across contigs. %d transcripts removed.",
			metrics.ContigSplit, cfg.Genome, removed)
	} else {
		log.Infof("%d genes for %s have transcripts split across contigs.", metrics.ContigSplit, cfg.Genome)
	}
	return metrics, out, nil
}

// bestCluster returns the index of the cluster with the highest mean
// alignment score. Cluster members index into idx which indexes into
// recs.
func bestCluster(clusters []Cluster, recs []AlignmentRecord, idx []int) int {
	best := -1
	var bestMean float64
	for i, c := range clusters {
		var sum float64
		for _, m := range c.Members {
			sum += recs[idx[m]].Score
		}
		mean := sum / float64(len(c.Members))
		if best < 0 || mean > bestMean {
			best = i
			bestMean = mean
		}
	}
	return best
}

func distinctChroms(loci []Locus) []string {
	seen := make(map[string]bool)
	var chroms []string
	for _, l := range loci {
		if !seen[l.Chrom] {
			seen[l.Chrom] = true
			chroms = append(chroms, l.Chrom)
		}
	}
	sort.Strings(chroms)
	return chroms
}

// sharesChrom returns whether more than one cluster is on the same
// chromosome. Clusters must be ordered by chromosome.
func sharesChrom(clusters []Cluster) bool {
	for i := 1; i < len(clusters); i++ {
		if clusters[i].Chrom == clusters[i-1].Chrom {
			return true
		}
	}
	return false
}
