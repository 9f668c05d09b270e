// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transmap

import "fmt"

// maxSynteny is the number of flanking genes considered
// when the synteny of an alignment is evaluated.
const maxSynteny = 6

// Score returns the composite score of an alignment,
//
//	0.2 * coverage + 0.3 * identity + 0.5 * synteny/6
//
// An error wrapping ErrInvalidRange is returned if coverage or identity
// is not within [0,100], synteny is not within [0,6] or the score is not
// within [0,100]; this indicates corrupt input metrics.
func Score(r AlignmentRecord) (float64, error) {
	err := checkRange(r.AlignmentID, r.TransMapCoverage, r.TransMapIdentity, r.Synteny)
	if err != nil {
		return 0, err
	}
	s := 0.2*r.TransMapCoverage +
		0.3*r.TransMapIdentity +
		0.5*float64(r.Synteny)/maxSynteny
	if !(0 <= s && s <= 100) {
		return s, fmt.Errorf("%w: %s scored %v (coverage=%v identity=%v synteny=%d)",
			ErrInvalidRange, r.AlignmentID, s, r.TransMapCoverage, r.TransMapIdentity, r.Synteny)
	}
	return s, nil
}

// checkRange returns an error wrapping ErrInvalidRange if any of the
// alignment metrics is outside its valid range.
func checkRange(id string, coverage, identity float64, synteny int) error {
	switch {
	case !(0 <= coverage && coverage <= 100):
		return fmt.Errorf("%w: %s has coverage %v", ErrInvalidRange, id, coverage)
	case !(0 <= identity && identity <= 100):
		return fmt.Errorf("%w: %s has identity %v", ErrInvalidRange, id, identity)
	case synteny < 0 || maxSynteny < synteny:
		return fmt.Errorf("%w: %s has synteny %d", ErrInvalidRange, id, synteny)
	}
	return nil
}
