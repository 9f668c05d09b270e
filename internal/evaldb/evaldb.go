// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package evaldb loads reference annotation and transMap alignment
// evaluation tables from SQLite databases.
//
// The reference database holds an annotation table with one row per
// transcript. The genome database holds the transMap evaluation table in
// long form, with one row per alignment and classifier.
package evaldb

import (
	"fmt"
	"math"
	"sort"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kortschak/tmfilter/transmap"
)

// Table names.
const (
	AnnotationTable = "annotation"
	EvaluationTable = "TransMapEvaluation"
)

// Classifier names in the evaluation table.
const (
	Identity = "TransMapIdentity"
	Coverage = "TransMapCoverage"
	Synteny  = "Synteny"
	Paralogy = "Paralogy"
)

// Annotation is a row of the reference annotation table.
type Annotation struct {
	TranscriptID      string `gorm:"column:TranscriptId;primaryKey"`
	GeneID            string `gorm:"column:GeneId;index"`
	TranscriptBiotype string `gorm:"column:TranscriptBiotype"`
}

func (Annotation) TableName() string { return AnnotationTable }

// Evaluation is a row of the long form transMap evaluation table.
type Evaluation struct {
	AlignmentID  string  `gorm:"column:AlignmentId;primaryKey"`
	TranscriptID string  `gorm:"column:TranscriptId;index"`
	Classifier   string  `gorm:"column:classifier;primaryKey"`
	Value        float64 `gorm:"column:value"`
}

func (Evaluation) TableName() string { return EvaluationTable }

// Open opens the SQLite database at path.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("evaldb: could not open %s: %w", path, err)
	}
	return db, nil
}

// Close closes the database connection underlying db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// LoadAnnotation returns the reference annotation table held in db.
func LoadAnnotation(db *gorm.DB) ([]transmap.Annotation, error) {
	var rows []Annotation
	err := db.Order("TranscriptId").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("evaldb: could not load %s: %w", AnnotationTable, err)
	}
	ref := make([]transmap.Annotation, len(rows))
	for i, r := range rows {
		ref[i] = transmap.Annotation{
			TranscriptID:      r.TranscriptID,
			GeneID:            r.GeneID,
			TranscriptBiotype: r.TranscriptBiotype,
		}
	}
	return ref, nil
}

// LoadEvaluation returns the alignment evaluation table held in db,
// pivoted to one row per alignment. It is an error for an alignment
// to be missing a classifier or for an integer classifier to have a
// fractional value.
func LoadEvaluation(db *gorm.DB) ([]transmap.Evaluation, error) {
	var rows []Evaluation
	err := db.Where("classifier IN ?", []string{Identity, Coverage, Synteny, Paralogy}).
		Order("AlignmentId").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("evaldb: could not load %s: %w", EvaluationTable, err)
	}
	return pivot(rows)
}

// pivot converts long form evaluation rows into alignment evaluations.
func pivot(rows []Evaluation) ([]transmap.Evaluation, error) {
	const (
		hasIdentity = 1 << iota
		hasCoverage
		hasSynteny
		hasParalogy
		hasAll = hasIdentity | hasCoverage | hasSynteny | hasParalogy
	)
	type partial struct {
		transmap.Evaluation
		has int
	}
	byAlignment := make(map[string]*partial)
	for _, r := range rows {
		p, ok := byAlignment[r.AlignmentID]
		if !ok {
			p = &partial{Evaluation: transmap.Evaluation{AlignmentID: r.AlignmentID, TranscriptID: r.TranscriptID}}
			byAlignment[r.AlignmentID] = p
		}
		if p.TranscriptID != r.TranscriptID {
			return nil, fmt.Errorf("evaldb: alignment %s has inconsistent transcript IDs: %s and %s", r.AlignmentID, p.TranscriptID, r.TranscriptID)
		}
		var err error
		switch r.Classifier {
		case Identity:
			p.TransMapIdentity = r.Value
			p.has |= hasIdentity
		case Coverage:
			p.TransMapCoverage = r.Value
			p.has |= hasCoverage
		case Synteny:
			p.Synteny, err = integer(r)
			p.has |= hasSynteny
		case Paralogy:
			p.Paralogy, err = integer(r)
			p.has |= hasParalogy
		}
		if err != nil {
			return nil, err
		}
	}

	eval := make([]transmap.Evaluation, 0, len(byAlignment))
	for id, p := range byAlignment {
		if p.has != hasAll {
			return nil, fmt.Errorf("evaldb: alignment %s is missing classifiers", id)
		}
		eval = append(eval, p.Evaluation)
	}
	sort.Slice(eval, func(i, j int) bool { return eval[i].AlignmentID < eval[j].AlignmentID })
	return eval, nil
}

func integer(r Evaluation) (int, error) {
	if r.Value != math.Trunc(r.Value) {
		return 0, fmt.Errorf("evaldb: non-integer %s for %s: %v", r.Classifier, r.AlignmentID, r.Value)
	}
	return int(r.Value), nil
}
