// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenePredToGtf(t *testing.T) {
	tests := []struct {
		name string
		cmd  GenePredToGtf
		want []string
	}{
		{
			name: "defaults",
			cmd:  GenePredToGtf{In: "in.gp", Out: "out.gtf"},
			want: []string{"genePredToGtf", "file", "in.gp", "out.gtf"},
		},
		{
			name: "options",
			cmd: GenePredToGtf{
				UTR:          true,
				HonorCdsStat: true,
				Source:       "transMap",
				In:           "in.gp",
				Out:          "out.gtf",
			},
			want: []string{"genePredToGtf", "-utr", "-honorCdsStat", "-source=transMap", "file", "in.gp", "out.gtf"},
		},
		{
			name: "extra",
			cmd:  GenePredToGtf{Cmd: "/opt/kent/genePredToGtf", In: "in.gp", Out: "out.gtf", ExtraFlags: "-verbose=2"},
			want: []string{"/opt/kent/genePredToGtf", "-verbose=2", "file", "in.gp", "out.gtf"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cmd, err := test.cmd.BuildCommand()
			require.NoError(t, err)
			assert.Equal(t, test.want, cmd.Args)
		})
	}
}

func TestGenePredToGtfMissingFiles(t *testing.T) {
	_, err := GenePredToGtf{Out: "out.gtf"}.BuildCommand()
	assert.Error(t, err)
	_, err = GenePredToGtf{In: "in.gp"}.BuildCommand()
	assert.Error(t, err)
}
