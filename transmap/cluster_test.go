// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var clustersTests = []struct {
	name string
	loci []Locus
	want []Cluster
}{
	{
		name: "adjacent merge gap does not",
		loci: []Locus{
			{Chrom: "chr1", Start: 0, End: 10},
			{Chrom: "chr1", Start: 10, End: 20},
			{Chrom: "chr1", Start: 25, End: 30},
		},
		want: []Cluster{
			{Chrom: "chr1", Start: 0, End: 20, Members: []int{0, 1}},
			{Chrom: "chr1", Start: 25, End: 30, Members: []int{2}},
		},
	},
	{
		name: "unsorted and contained",
		loci: []Locus{
			{Chrom: "chr1", Start: 500, End: 600},
			{Chrom: "chr1", Start: 100, End: 400},
			{Chrom: "chr1", Start: 150, End: 200},
			{Chrom: "chr1", Start: 350, End: 450},
		},
		want: []Cluster{
			{Chrom: "chr1", Start: 100, End: 450, Members: []int{1, 2, 3}},
			{Chrom: "chr1", Start: 500, End: 600, Members: []int{0}},
		},
	},
	{
		name: "chromosomes",
		loci: []Locus{
			{Chrom: "chr2", Start: 0, End: 10},
			{Chrom: "chr1", Start: 5, End: 15},
			{Chrom: "chr2", Start: 5, End: 15},
			{Chrom: "chrUn", Start: 0, End: 10},
		},
		want: []Cluster{
			{Chrom: "chr1", Start: 5, End: 15, Members: []int{1}},
			{Chrom: "chr2", Start: 0, End: 15, Members: []int{0, 2}},
			{Chrom: "chrUn", Start: 0, End: 10, Members: []int{3}},
		},
	},
	{
		name: "single",
		loci: []Locus{{Chrom: "chrX", Start: 1000, End: 2000}},
		want: []Cluster{{Chrom: "chrX", Start: 1000, End: 2000, Members: []int{0}}},
	},
}

func TestClusters(t *testing.T) {
	for _, test := range clustersTests {
		t.Run(test.name, func(t *testing.T) {
			got, err := Clusters(test.loci)
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestClustersPartition(t *testing.T) {
	var loci []Locus
	for i := 0; i < 50; i++ {
		chrom := "chr1"
		if i%3 == 0 {
			chrom = "chr2"
		}
		start := (i * 37) % 400
		loci = append(loci, Locus{Chrom: chrom, Start: start, End: start + 1 + i%20})
	}
	clusters, err := Clusters(loci)
	require.NoError(t, err)

	seen := make(map[int]bool)
	for _, c := range clusters {
		require.NotEmpty(t, c.Members)
		for _, m := range c.Members {
			assert.False(t, seen[m], "locus %d in more than one cluster", m)
			seen[m] = true
			l := loci[m]
			assert.Equal(t, c.Chrom, l.Chrom)
			assert.True(t, c.Start <= l.Start && l.End <= c.End, "locus %+v not within cluster %+v", l, c)
		}
	}
	assert.Len(t, seen, len(loci))

	for i := 1; i < len(clusters); i++ {
		if clusters[i].Chrom == clusters[i-1].Chrom {
			assert.Greater(t, clusters[i].Start, clusters[i-1].End, "clusters not separated by a gap")
		}
	}
}
