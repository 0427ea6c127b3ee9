// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"fmt"
	"strconv"

	"github.com/cockroachdb/pdb"
	"github.com/cockroachdb/pdb/dbi"
	"github.com/cockroachdb/pdb/msf"
	"github.com/cockroachdb/pdb/omap"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func (p *pdbT) runOmap(cmd *cobra.Command, args []string) {
	stdout, stderr := cmd.OutOrStdout(), cmd.OutOrStderr()
	if p.omapToSrc && p.omapFromSrc {
		fmt.Fprintf(stderr, "--to-src and --from-src are mutually exclusive\n")
		return
	}
	slot := dbi.DbgOmapFromSrc
	if p.omapToSrc {
		slot = dbi.DbgOmapToSrc
	}

	f, err := p.open(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	defer f.Close()

	hdr, err := f.DbiHeader()
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	dbiBytes, err := msf.ReadAll(f.Stream(pdb.StreamDBI))
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	id, err := hdr.DbgStream(dbiBytes, slot)
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	if id == msf.InvalidStreamID {
		fmt.Fprintf(stdout, "no %s stream\n", slot)
		return
	}
	s := f.Stream(id)
	if s == nil {
		fmt.Fprintf(stderr, "%s slot names stream %s, which is absent\n", slot, id)
		return
	}
	data, err := msf.ReadAll(s)
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	table, err := omap.DecodeBytes(data)
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	if !table.IsValid() {
		fmt.Fprintf(stdout, "warning: %s table is not strictly increasing\n", slot)
	}

	if p.translate != "" {
		addr, err := strconv.ParseUint(p.translate, 0, 32)
		if err != nil {
			fmt.Fprintf(stderr, "parsing %q: %s\n", p.translate, err)
			return
		}
		fmt.Fprintf(stdout, "0x%08x -> 0x%08x\n", uint32(addr), table.Translate(uint32(addr)))
		return
	}

	tbl := tablewriter.NewWriter(stdout)
	tbl.SetHeader([]string{"RVA", "RVA TO"})
	for _, e := range table {
		tbl.Append([]string{fmt.Sprintf("0x%08x", e.RVA), fmt.Sprintf("0x%08x", e.RVATo)})
	}
	tbl.Render()
	fmt.Fprintf(stdout, "%d entries (%s, stream %s)\n", len(table), slot, id)
}
