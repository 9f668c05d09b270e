// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transmap

import (
	"fmt"
	"sort"

	"github.com/biogo/store/interval"
)

// Locus is the genomic location of a transcript alignment.
// Coordinates are zero-based and half-open.
type Locus struct {
	Chrom      string
	Start, End int
}

// Locator provides transcript loci keyed by alignment ID.
type Locator interface {
	Locus(alignmentID string) (Locus, bool)
}

// Cluster is a group of loci that overlap or abut on a chromosome.
type Cluster struct {
	Chrom      string
	Start, End int

	// Members holds the indices of the
	// loci that make up the cluster.
	Members []int
}

// Clusters returns the location clusters of loci. Loci are merged when they
// overlap or are adjacent with no gap between them. Every locus belongs to
// exactly one cluster and clusters are ordered by chromosome and then by
// start position.
func Clusters(loci []Locus) ([]Cluster, error) {
	clusters := merge(loci)

	trees := make(map[string]*interval.IntTree)
	for i, c := range clusters {
		t, ok := trees[c.Chrom]
		if !ok {
			t = &interval.IntTree{}
			trees[c.Chrom] = t
		}
		err := t.Insert(clusterInterval{uid: uintptr(i), start: c.Start, end: c.End}, true)
		if err != nil {
			return nil, fmt.Errorf("transmap: could not index cluster %s:%d-%d: %w", c.Chrom, c.Start, c.End, err)
		}
	}
	for _, t := range trees {
		t.AdjustRanges()
	}

	for i, l := range loci {
		hits := trees[l.Chrom].Get(containedBy(l))
		if len(hits) == 0 {
			panic("transmap: locus not in any cluster")
		}
		// Use the first cluster if the locus
		// is empty and sits on a boundary.
		id := hits[0].ID()
		for _, h := range hits[1:] {
			if h.ID() < id {
				id = h.ID()
			}
		}
		clusters[id].Members = append(clusters[id].Members, i)
	}
	return clusters, nil
}

// merge returns the zero-gap merged spans of loci, ordered by chromosome
// and start position.
func merge(loci []Locus) []Cluster {
	byChrom := make(map[string][]Locus)
	for _, l := range loci {
		byChrom[l.Chrom] = append(byChrom[l.Chrom], l)
	}
	chroms := make([]string, 0, len(byChrom))
	for c := range byChrom {
		chroms = append(chroms, c)
	}
	sort.Strings(chroms)

	var merged []Cluster
	for _, c := range chroms {
		spans := byChrom[c]
		sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
		merged = append(merged, Cluster{Chrom: c, Start: spans[0].Start, End: spans[0].End})
		for _, s := range spans[1:] {
			last := &merged[len(merged)-1]
			if s.Start <= last.End {
				last.End = max(last.End, s.End)
				continue
			}
			merged = append(merged, Cluster{Chrom: c, Start: s.Start, End: s.End})
		}
	}
	return merged
}

// clusterInterval is an interval.IntInterface for a merged cluster span.
type clusterInterval struct {
	uid        uintptr
	start, end int
}

func (i clusterInterval) Overlap(b interval.IntRange) bool {
	return b.Start < i.end && i.start < b.End
}
func (i clusterInterval) ID() uintptr { return i.uid }
func (i clusterInterval) Range() interval.IntRange {
	return interval.IntRange{Start: i.start, End: i.end}
}

// containedBy is an interval.IntOverlapper that matches intervals
// that completely contain the locus.
type containedBy Locus

func (l containedBy) Overlap(b interval.IntRange) bool {
	return b.Start <= l.Start && l.End <= b.End
}
