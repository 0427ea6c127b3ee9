// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"fmt"
	"path"
	"sort"

	"github.com/cockroachdb/pdb"
	"github.com/cockroachdb/pdb/tpi"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func (p *pdbT) runTpi(cmd *cobra.Command, args []string) {
	stdout, stderr := cmd.OutOrStdout(), cmd.OutOrStderr()
	if p.filter != "" {
		if _, err := path.Match(p.filter, ""); err != nil {
			fmt.Fprintf(stderr, "bad filter %q: %s\n", p.filter, err)
			return
		}
	}
	f, err := p.open(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	defer f.Close()

	s := f.Stream(pdb.StreamTPI)
	if s == nil {
		fmt.Fprintf(stderr, "%s: no type stream\n", args[0])
		return
	}
	types, err := tpi.Walk(s, tpi.WalkerOptions{Logger: p.logger})
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}

	type row struct {
		id  tpi.TypeID
		udt *tpi.UDT
	}
	var rows []row
	types.All(func(id tpi.TypeID, typ tpi.Type) bool {
		udt, ok := typ.(*tpi.UDT)
		if !ok {
			return true
		}
		if p.filter != "" {
			if ok, _ := path.Match(p.filter, udt.Name); !ok {
				return true
			}
		}
		rows = append(rows, row{id: id, udt: udt})
		return true
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].id < rows[j].id })

	tbl := tablewriter.NewWriter(stdout)
	tbl.SetHeader([]string{"ID", "KIND", "NAME", "SIZE", "FIELDS", "METHODS"})
	for _, r := range rows {
		name := r.udt.Name
		if r.udt.ForwardDeclaration {
			name += " (forward)"
		}
		tbl.Append([]string{
			r.id.String(),
			r.udt.Kind.String(),
			name,
			fmt.Sprintf("%d", r.udt.Size),
			fmt.Sprintf("%d", len(r.udt.Fields)),
			fmt.Sprintf("%d", len(r.udt.Methods)),
		})
	}
	tbl.Render()
	fmt.Fprintf(stdout, "%d records, %d types materialized\n", types.NumRecords(), types.NumTypes())
}
