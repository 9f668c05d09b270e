// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package kent provides types for invoking UCSC Kent source utilities.
package kent

import (
	"errors"
	"os/exec"
	"strings"

	"github.com/biogo/external"
)

// GenePredToGtf converts a genePred file to GTF.
type GenePredToGtf struct {
	// Usage: genePredToGtf [options] file <in.gp> <out.gtf>
	//
	// For details relating to options and parameters, see the
	// genePredToGtf usage message.
	//
	Cmd string `buildarg:"{{if .}}{{.}}{{else}}genePredToGtf{{end}}"` // genePredToGtf

	UTR          bool   `buildarg:"{{if .}}-utr{{end}}"`             // -utr
	HonorCdsStat bool   `buildarg:"{{if .}}-honorCdsStat{{end}}"`    // -honorCdsStat
	AddComments  bool   `buildarg:"{{if .}}-addComments{{end}}"`     // -addComments
	Source       string `buildarg:"{{with .}}-source={{.}}{{end}}"`  // -source=<s>
	Database     string `buildarg:"{{if .}}{{.}}{{else}}file{{end}}"` // <database>

	In  string `buildarg:"{{.}}"` // <in.gp>
	Out string `buildarg:"{{.}}"` // <out.gtf>

	// ExtraFlags will be passed through to genePredToGtf as flags.
	ExtraFlags string
}

func (g GenePredToGtf) BuildCommand() (*exec.Cmd, error) {
	if g.In == "" {
		return nil, errors.New("genePredToGtf: missing input filename")
	}
	if g.Out == "" {
		return nil, errors.New("genePredToGtf: missing output filename")
	}
	var extra []string
	if g.ExtraFlags != "" {
		extra = strings.Split(g.ExtraFlags, " ")
	}
	cl := external.Must(external.Build(g))
	return exec.Command(cl[0], append(extra, cl[1:]...)...), nil
}
