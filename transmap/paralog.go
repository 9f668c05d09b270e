// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transmap

import "sort"

// ParalogCounts holds the paralog resolution outcomes for a biotype.
type ParalogCounts struct {
	Discarded        int `json:"Alignments discarded"`
	ModelPrediction  int `json:"Model prediction"`
	SyntenyHeuristic int `json:"Synteny heuristic"`
	Arbitrary        int `json:"Arbitrarily resolved"`
}

// Resolved returns the number of transcripts that had paralogs resolved.
func (c ParalogCounts) Resolved() int {
	return c.ModelPrediction + c.SyntenyHeuristic + c.Arbitrary
}

// ParalogMetrics holds paralog resolution outcomes keyed by biotype.
type ParalogMetrics map[string]*ParalogCounts

// ResolveParalogs scores each alignment in recs and picks a single alignment
// for each transcript.
//
// Within a transcript, alignments are ordered by descending score and then
// by alignment ID. If exactly one alignment is passing, it is chosen. Otherwise
// the highest scoring alignment is chosen, and if more than one alignment
// has the highest score the first of these is chosen and marked NotConfident
// and failing. Transcripts with a single alignment are retained with a
// NoParalogs status.
//
// The returned records are sorted by transcript ID.
func ResolveParalogs(recs []AlignmentRecord, cfg Config) (ParalogMetrics, []AlignmentRecord, error) {
	log := cfg.logger()

	scored := make([]AlignmentRecord, len(recs))
	metrics := make(ParalogMetrics)
	for i, r := range recs {
		s, err := Score(r)
		if err != nil {
			return nil, nil, err
		}
		r.Score = s
		scored[i] = r
		if _, ok := metrics[r.TranscriptBiotype]; !ok {
			metrics[r.TranscriptBiotype] = &ParalogCounts{}
		}
	}

	groups, txs := groupBy(scored, func(r AlignmentRecord) string { return r.TranscriptID })
	resolved := make([]AlignmentRecord, 0, len(txs))
	for _, tx := range txs {
		idx := groups[tx]
		if len(idx) == 1 {
			r := scored[idx[0]]
			r.ParalogStatus = NoParalogs
			resolved = append(resolved, r)
			continue
		}

		group := make([]AlignmentRecord, len(idx))
		for j, i := range idx {
			group[j] = scored[i]
		}
		sort.Sort(byScore(group))

		r, how := pickParalog(group)
		counts := metrics[r.TranscriptBiotype]
		counts.Discarded += len(group) - 1
		switch how {
		case modelPrediction:
			counts.ModelPrediction++
			r.ParalogStatus = Confident
		case syntenyHeuristic:
			counts.SyntenyHeuristic++
			r.ParalogStatus = Confident
		case arbitrary:
			counts.Arbitrary++
			r.ParalogStatus = NotConfident
			r.TranscriptClass = Failing
		default:
			panic("unreachable")
		}
		resolved = append(resolved, r)
	}

	biotypes := make([]string, 0, len(metrics))
	for b := range metrics {
		biotypes = append(biotypes, b)
	}
	sort.Strings(biotypes)
	for _, b := range biotypes {
		c := metrics[b]
		log.WithField("biotype", b).Infof("Discarded %d alignments for %s on %s after paralog resolution. %d transcripts remain.",
			c.Discarded, b, cfg.Genome, c.Resolved())
	}

	return metrics, resolved, nil
}

type resolution int

const (
	modelPrediction resolution = iota
	syntenyHeuristic
	arbitrary
)

// pickParalog returns the chosen alignment from a group of alignments for
// a single transcript sorted by byScore, and the means by which it was
// chosen.
func pickParalog(group []AlignmentRecord) (AlignmentRecord, resolution) {
	var (
		passing AlignmentRecord
		n       int
	)
	for _, r := range group {
		if r.TranscriptClass == Passing {
			passing = r
			n++
		}
	}
	if n == 1 {
		return passing, modelPrediction
	}

	best := group[0]
	if len(group) == 1 || group[1].Score != best.Score {
		return best, syntenyHeuristic
	}
	return best, arbitrary
}

// byScore satisfies the sort.Interface, ordering by descending score
// and then by alignment ID.
type byScore []AlignmentRecord

func (r byScore) Len() int { return len(r) }
func (r byScore) Less(i, j int) bool {
	if r[i].Score != r[j].Score {
		return r[i].Score > r[j].Score
	}
	return r[i].AlignmentID < r[j].AlignmentID
}
func (r byScore) Swap(i, j int) { r[i], r[j] = r[j], r[i] }
