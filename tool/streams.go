// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"fmt"

	"github.com/cockroachdb/crlib/crhumanize"
	"github.com/cockroachdb/pdb/msf"
	"github.com/guptarohit/asciigraph"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func (p *pdbT) runStreams(cmd *cobra.Command, args []string) {
	stdout, stderr := cmd.OutOrStdout(), cmd.OutOrStderr()
	f, err := p.open(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	defer f.Close()

	names := streamNames(f)
	tbl := tablewriter.NewWriter(stdout)
	tbl.SetHeader([]string{"ID", "LENGTH", "SIZE", "PAGES", "XXHASH64", "NAME"})
	sizes := make([]float64, f.NumStreams())
	for id := msf.StreamID(0); int(id) < f.NumStreams(); id++ {
		s := f.Stream(id)
		if s == nil {
			tbl.Append([]string{id.String(), "-", "-", "-", "-", names[id]})
			continue
		}
		length, hash := fingerprint(f, id)
		n := s.Length()
		sizes[id] = float64(n)
		tbl.Append([]string{
			id.String(),
			length,
			string(crhumanize.Bytes(int64(n), crhumanize.Compact, crhumanize.OmitI)),
			fmt.Sprintf("%d", (n+msf.PageSize-1)/msf.PageSize),
			hash,
			names[id],
		})
	}
	tbl.Render()

	if p.chart {
		fmt.Fprintf(stdout, "\nstream sizes (bytes)\n%s\n", asciigraph.Plot(sizes, asciigraph.Height(10)))
	}
}
