// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// tmfilter resolves paralogous alignments and split genes in transMap
// output. It reads the reference annotation and the transMap alignment
// evaluation tables from SQLite databases, and the transMap alignments
// from a genePred file, and writes the filtered alignments as genePred.
//
// Filtering metrics are written as JSON, and the results table and the
// identity cutoff fitted for each transcript biotype may be written to kv
// databases that can be inspected with audit-tmfilter-db.
//
// Flags may also be given in a config file specified by --config, or in
// TMFILTER_ prefixed environment variables.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/biogo/biogo/io/featio/gff"
	"github.com/biogo/hts/fai"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kortschak/tmfilter/genepred"
	"github.com/kortschak/tmfilter/internal/evaldb"
	"github.com/kortschak/tmfilter/internal/store"
	"github.com/kortschak/tmfilter/kent"
	"github.com/kortschak/tmfilter/transmap"
)

func main() {
	err := newCommand().Execute()
	if err != nil {
		log.Fatal(err)
	}
}

func newCommand() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:          "tmfilter",
		Short:        "resolve paralogs and split genes in transMap output",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path := v.GetString("config"); path != "" {
				v.SetConfigFile(path)
				err := v.ReadInConfig()
				if err != nil {
					return err
				}
			}
			opts, err := optionsFrom(v)
			if err != nil {
				return err
			}
			return run(opts)
		},
	}

	f := cmd.Flags()
	f.String("config", "", "specify a config file")
	f.String("ref-db", "", "specify the reference annotation database (required)")
	f.String("db", "", "specify the genome alignment evaluation database (required)")
	f.String("genepred", "", "specify the transMap genePred file (required)")
	f.String("genome", "", "specify the target genome name (required)")
	f.String("out", "", "specify the filtered genePred output file (required)")
	f.Bool("resolve-split-genes", false, "specify to remove transcripts outside the best location of split genes")
	f.String("metrics", "", "specify the metrics JSON output file")
	f.String("results", "", "specify the results table kv database output file")
	f.String("cutoffs", "", "specify the biotype cutoff kv database output file")
	f.String("fai", "", "specify a genome FASTA index to validate transcript loci against")
	f.String("gff", "", "specify a GFF output file for the filtered transcripts")
	f.String("gtf", "", "specify a GTF output file for the filtered transcripts (requires genePredToGtf)")
	f.Bool("verbose", false, "specify verbose logging")

	err := v.BindPFlags(f)
	if err != nil {
		panic(err)
	}
	v.SetEnvPrefix("tmfilter")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return cmd
}

// options is the configuration for a tmfilter run.
type options struct {
	refDB    string
	db       string
	genePred string
	genome   string
	out      string

	removeSplitGenes bool

	metrics string
	results string
	cutoffs string
	fai     string
	gff     string
	gtf     string

	verbose bool
}

func optionsFrom(v *viper.Viper) (options, error) {
	o := options{
		refDB:            v.GetString("ref-db"),
		db:               v.GetString("db"),
		genePred:         v.GetString("genepred"),
		genome:           v.GetString("genome"),
		out:              v.GetString("out"),
		removeSplitGenes: v.GetBool("resolve-split-genes"),
		metrics:          v.GetString("metrics"),
		results:          v.GetString("results"),
		cutoffs:          v.GetString("cutoffs"),
		fai:              v.GetString("fai"),
		gff:              v.GetString("gff"),
		gtf:              v.GetString("gtf"),
		verbose:          v.GetBool("verbose"),
	}
	var missing []string
	for _, r := range []struct{ name, val string }{
		{"ref-db", o.refDB},
		{"db", o.db},
		{"genepred", o.genePred},
		{"genome", o.genome},
		{"out", o.out},
	} {
		if r.val == "" {
			missing = append(missing, "--"+r.name)
		}
	}
	if len(missing) != 0 {
		return o, fmt.Errorf("missing required flags: %s", strings.Join(missing, " "))
	}
	return o, nil
}

func run(o options) error {
	if o.verbose {
		log.SetLevel(log.DebugLevel)
	}
	log.Println(os.Args)

	log.Printf("loading annotation from %s", o.refDB)
	ref, err := loadAnnotation(o.refDB)
	if err != nil {
		return err
	}
	log.Printf("loading alignment evaluation from %s", o.db)
	eval, err := loadEvaluation(o.db)
	if err != nil {
		return err
	}
	log.Printf("reading transcripts from %s", o.genePred)
	txs, err := readGenePred(o.genePred)
	if err != nil {
		return err
	}
	if o.fai != "" {
		err = checkLoci(txs, o.fai)
		if err != nil {
			return err
		}
	}

	res, err := transmap.Filter(eval, ref, locator{txs}, transmap.Config{
		Genome:           o.genome,
		RemoveSplitGenes: o.removeSplitGenes,
		Log:              log.StandardLogger(),
	})
	if err != nil {
		return err
	}

	err = writeGenePred(o.out, txs, res.Alignments)
	if err != nil {
		return err
	}
	log.Printf("wrote %d filtered alignments to %s", len(res.Alignments), o.out)

	if o.metrics != "" {
		err = writeMetrics(o.metrics, o.genome, res.Metrics)
		if err != nil {
			return err
		}
	}
	if o.results != "" {
		err = store.WriteResults(o.results, res.Rows)
		if err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}
	}
	if o.cutoffs != "" {
		err = store.WriteCutoffs(o.cutoffs, res.Cutoffs)
		if err != nil {
			return fmt.Errorf("failed to write cutoffs: %w", err)
		}
	}
	if o.gff != "" {
		err = writeGFF(o.gff, txs, res.Alignments)
		if err != nil {
			return err
		}
	}
	if o.gtf != "" {
		err = writeGTF(o.gtf, o.out)
		if err != nil {
			return err
		}
	}
	return nil
}

func loadAnnotation(path string) ([]transmap.Annotation, error) {
	db, err := evaldb.Open(path)
	if err != nil {
		return nil, err
	}
	defer evaldb.Close(db)
	return evaldb.LoadAnnotation(db)
}

func loadEvaluation(path string) ([]transmap.Evaluation, error) {
	db, err := evaldb.Open(path)
	if err != nil {
		return nil, err
	}
	defer evaldb.Close(db)
	return evaldb.LoadEvaluation(db)
}

func readGenePred(path string) (genepred.Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	txs, err := genepred.Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return txs, nil
}

func checkLoci(txs genepred.Set, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	idx, err := fai.ReadFrom(f)
	if err != nil {
		return fmt.Errorf("failed to read index %s: %w", path, err)
	}
	return txs.Check(idx)
}

// locator is a transmap.Locator backed by a set of genePred transcripts.
type locator struct {
	txs genepred.Set
}

func (l locator) Locus(id string) (transmap.Locus, bool) {
	t, ok := l.txs[id]
	if !ok {
		return transmap.Locus{}, false
	}
	return transmap.Locus{Chrom: t.Chrom, Start: t.TxStart, End: t.TxEnd}, true
}

func writeGenePred(path string, txs genepred.Set, ids []string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		cerr := f.Close()
		if err == nil {
			err = cerr
		}
	}()
	for _, id := range ids {
		_, err = fmt.Fprintln(f, txs[id])
		if err != nil {
			return err
		}
	}
	return nil
}

func writeMetrics(path, genome string, m transmap.Metrics) error {
	b, err := json.MarshalIndent(map[string]transmap.Metrics{genome: m}, "", "\t")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o664)
}

func writeGFF(path string, txs genepred.Set, ids []string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		cerr := f.Close()
		if err == nil {
			err = cerr
		}
	}()
	enc := gff.NewWriter(f, 60, true)
	for _, id := range ids {
		for _, feat := range txs[id].Features("transMap") {
			_, err = enc.Write(feat)
			if err != nil {
				return fmt.Errorf("failed to write feature: %w", err)
			}
		}
	}
	return nil
}

func writeGTF(path, genePred string) error {
	conv, err := kent.GenePredToGtf{UTR: true, HonorCdsStat: true, Source: "transMap", In: genePred, Out: path}.BuildCommand()
	if err != nil {
		return err
	}
	log.Print(conv)
	out, err := conv.CombinedOutput()
	if err != nil {
		var exit *exec.ExitError
		if errors.As(err, &exit) {
			return fmt.Errorf("genePredToGtf failed: %w: %s", err, out)
		}
		return err
	}
	return nil
}
