// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transmap

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// numSigma is the number of standard deviations below the mean
// of the transformed 1-1 ortholog identity distribution that the
// identity cutoff is placed.
const numSigma = 1

// BiotypeCutoff is the identity cutoff fitted for a transcript biotype.
type BiotypeCutoff struct {
	Biotype string

	// Cutoff is the fitted identity cutoff. It is
	// only meaningful if Fitted is true, and may be
	// non-finite if the fit was degenerate.
	Cutoff float64
	Fitted bool
}

// FitDistributions classifies each alignment in recs as passing or failing
// based on an identity cutoff fitted separately for each transcript biotype.
//
// For each biotype, a normal distribution is fitted by maximum likelihood
// to -log(100 - identity) of the alignments of transcripts with a single
// alignment, ignoring perfect identities. The cutoff is one standard
// deviation below the mean, mapped back to identity. Alignments with an
// identity at or above the cutoff are passing.
//
// If a biotype has no paralogous alignments all its alignments pass and if
// it has no unique alignments they all fail; no cutoff is recorded in either
// case. If the fitted cutoff is not finite, all alignments of the biotype
// pass.
//
// The returned records are in the order of recs and the cutoffs are sorted
// by biotype.
func FitDistributions(recs []AlignmentRecord, cfg Config) ([]AlignmentRecord, []BiotypeCutoff) {
	log := cfg.logger()

	out := make([]AlignmentRecord, len(recs))
	copy(out, recs)

	groups, biotypes := groupBy(recs, func(r AlignmentRecord) string { return r.TranscriptBiotype })
	cutoffs := make([]BiotypeCutoff, 0, len(biotypes))
	for _, biotype := range biotypes {
		idx := groups[biotype]
		blog := log.WithField("biotype", biotype)

		var unique []float64
		for _, i := range idx {
			if recs[i].Paralogy == 1 {
				unique = append(unique, recs[i].TransMapIdentity)
			}
		}
		nonUnique := len(idx) - len(unique)

		switch {
		case nonUnique == 0:
			blog.Infof("No paralogous mappings for %s on %s.", biotype, cfg.Genome)
			label(out, idx, Passing)
			cutoffs = append(cutoffs, BiotypeCutoff{Biotype: biotype})
			continue
		case len(unique) == 0:
			blog.Infof("Only paralogous mappings for %s on %s.", biotype, cfg.Genome)
			label(out, idx, Failing)
			cutoffs = append(cutoffs, BiotypeCutoff{Biotype: biotype})
			continue
		}

		blog.Infof("%d paralogous mappings and %d 1-1 orthologous mappings for %s on %s.",
			nonUnique, len(unique), biotype, cfg.Genome)
		cutoff := identityCutoff(unique, numSigma)
		cutoffs = append(cutoffs, BiotypeCutoff{Biotype: biotype, Cutoff: cutoff, Fitted: true})
		if math.IsNaN(cutoff) || math.IsInf(cutoff, 0) {
			blog.Warnf("Unable to establish an identity boundary for %s on %s. All transcripts marked passing.",
				biotype, cfg.Genome)
			label(out, idx, Passing)
			continue
		}

		var pass int
		for _, i := range idx {
			out[i].TranscriptClass = classify(out[i].TransMapIdentity, cutoff)
			if out[i].TranscriptClass == Passing {
				pass++
			}
		}
		blog.Infof("Established a %.2f%% identity boundary for %s on %s resulting in %d passing and %d failing alignments.",
			cutoff, biotype, cfg.Genome, pass, len(idx)-pass)
	}
	return out, cutoffs
}

func label(recs []AlignmentRecord, idx []int, c Class) {
	for _, i := range idx {
		recs[i].TranscriptClass = c
	}
}

// classify returns the class of an alignment with the given identity
// under cutoff.
func classify(identity, cutoff float64) Class {
	if identity >= cutoff {
		return Passing
	}
	return Failing
}

// identityCutoff returns the identity cutoff sigma standard deviations below
// the mean of the maximum likelihood normal fit to the transformed identities.
// The returned value is NaN if no identity is below 100.
func identityCutoff(identities []float64, sigma float64) float64 {
	x := transform(identities)
	if len(x) == 0 {
		return math.NaN()
	}
	mu, v := stat.MeanVariance(x, nil)
	if len(x) > 1 {
		// Use the biased maximum likelihood estimate of the variance.
		v *= float64(len(x)-1) / float64(len(x))
	} else {
		v = 0
	}
	n := distuv.Normal{Mu: mu, Sigma: math.Sqrt(v)}
	return untransform(n.Quantile(distuv.UnitNormal.CDF(-sigma)))
}

// transform returns -log(100 - identity) for all identities that are
// not 100.
func transform(identities []float64) []float64 {
	x := make([]float64, 0, len(identities))
	for _, id := range identities {
		if id == 100 {
			continue
		}
		x = append(x, -math.Log(100-id))
	}
	return x
}

// untransform is the inverse of the identity transform.
func untransform(x float64) float64 {
	return 100 - math.Exp(-x)
}
