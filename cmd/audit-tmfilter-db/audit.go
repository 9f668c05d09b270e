// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The audit-tmfilter-db command allows the kv data stores written by
// tmfilter to be queried. There are two persisted data stores.
//
//   - results.db: the filtering results table
//   - cutoffs.db: the identity cutoff fitted for each transcript biotype
//
// Each of the databases must be named as described here for
// audit-tmfilter-db to understand their contents. Output from
// audit-tmfilter-db is a JSON stream on stdout.
//
// # results.db
//
// The results.db file contains a row for each transcript that survived
// filtering, ordered by transcript and alignment ID, in JSON corresponding
// to the following Go struct.
//
//	struct {
//		GeneID               string
//		TranscriptID         string
//		AlignmentID          string
//		TranscriptClass      string // "passing" or "failing"
//		ParalogStatus        string // "", "Confident" or "NotConfident"
//		GeneAlternateContigs string
//		SplitGene            bool
//	}
//
// # cutoffs.db
//
// The cutoffs.db file contains the identity cutoff for each transcript
// biotype in JSON corresponding to the following Go struct. The cutoff
// is null when no fit was made, and a string when the fit was not finite.
//
//	struct {
//		Biotype        string
//		IdentityCutoff interface{}
//	}
package main

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strconv"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kortschak/tmfilter/internal/store"
	"github.com/kortschak/tmfilter/transmap"
)

func main() {
	var path string
	cmd := &cobra.Command{
		Use:          "audit-tmfilter-db",
		Short:        "dump a tmfilter kv store as JSON",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch filepath.Base(path) {
			case "results.db", "cutoffs.db":
			default:
				return cmd.Usage()
			}
			return audit(path, json.NewEncoder(os.Stdout))
		},
	}
	cmd.Flags().StringVar(&path, "db", "", "specify db file to audit (base must match '{results,cutoffs}.db')")
	err := cmd.Execute()
	if err != nil {
		log.Fatal(err)
	}
}

func audit(path string, enc *json.Encoder) error {
	switch filepath.Base(path) {
	case "results.db":
		rows, err := store.ReadResults(path)
		if err != nil {
			return err
		}
		for _, r := range rows {
			err = enc.Encode(r)
			if err != nil {
				return err
			}
		}
		return nil
	case "cutoffs.db":
		cutoffs, err := store.ReadCutoffs(path)
		if err != nil {
			return err
		}
		for _, c := range cutoffs {
			err = enc.Encode(cutoff{Biotype: c.Biotype, IdentityCutoff: cutoffValue(c)})
			if err != nil {
				return err
			}
		}
		return nil
	default:
		panic("unreachable")
	}
}

type cutoff struct {
	Biotype        string
	IdentityCutoff interface{}
}

// cutoffValue returns a JSON encodable representation of the cutoff in c.
func cutoffValue(c transmap.BiotypeCutoff) interface{} {
	switch {
	case !c.Fitted:
		return nil
	case math.IsNaN(c.Cutoff) || math.IsInf(c.Cutoff, 0):
		return strconv.FormatFloat(c.Cutoff, 'g', -1, 64)
	default:
		return c.Cutoff
	}
}
