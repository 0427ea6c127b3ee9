// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"fmt"

	"github.com/cockroachdb/pdb"
	"github.com/cockroachdb/pdb/codeview"
	"github.com/cockroachdb/pdb/dbi"
	"github.com/cockroachdb/pdb/msf"
	"github.com/cockroachdb/pdb/omap"
	"github.com/cockroachdb/pdb/sym"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func (p *pdbT) runSyms(cmd *cobra.Command, args []string) {
	stdout, stderr := cmd.OutOrStdout(), cmd.OutOrStderr()
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
	if hdr.SymRecordStream == 0xffff {
		fmt.Fprintf(stderr, "%s: no symbol record stream\n", args[0])
		return
	}
	s := f.Stream(msf.StreamID(hdr.SymRecordStream))
	if s == nil {
		fmt.Fprintf(stderr, "symbol record stream %s is absent\n", msf.StreamID(hdr.SymRecordStream))
		return
	}

	sections, err := f.SectionHeaders()
	if err != nil {
		// Addresses degrade to section:offset form.
		sections = nil
	}
	translate := omapFromTable(f)

	tbl := tablewriter.NewWriter(stdout)
	tbl.SetHeader([]string{"SEG:OFF", "RVA", "FLAGS", "NAME"})
	count := 0
	err = sym.Scan(s, func(kind codeview.SymKind, body []byte) (bool, error) {
		if kind != codeview.S_PUB32 {
			return true, nil
		}
		pub, err := sym.DecodePubSym32(body)
		if err != nil {
			return false, err
		}
		count++
		rvaStr := "-"
		if rva, ok := sections.ToRVA(pub.Segment, pub.Offset); ok {
			rva = translate.Translate(rva)
			rvaStr = fmt.Sprintf("0x%08x", rva)
		}
		tbl.Append([]string{
			fmt.Sprintf("%04x:%08x", pub.Segment, pub.Offset),
			rvaStr,
			pubFlagsString(pub.Flags),
			pub.Name,
		})
		return true, nil
	})
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	tbl.Render()
	fmt.Fprintf(stdout, "%d public symbols\n", count)
}

func pubFlagsString(flags uint32) string {
	s := ""
	if flags&sym.PubIsCode != 0 {
		s += "c"
	}
	if flags&sym.PubIsFunction != 0 {
		s += "f"
	}
	if flags&sym.PubIsManaged != 0 {
		s += "m"
	}
	if flags&sym.PubIsMSIL != 0 {
		s += "i"
	}
	if s == "" {
		return "-"
	}
	return s
}

// omapFromTable reads the omap_from_src table, or nil when the file does
// not carry a usable one. Translating through a nil table is the
// identity.
func omapFromTable(f *pdb.File) omap.Omap {
	hdr, err := f.DbiHeader()
	if err != nil {
		return nil
	}
	dbiBytes, err := msf.ReadAll(f.Stream(pdb.StreamDBI))
	if err != nil {
		return nil
	}
	id, err := hdr.DbgStream(dbiBytes, dbi.DbgOmapFromSrc)
	if err != nil || id == msf.InvalidStreamID {
		return nil
	}
	s := f.Stream(id)
	if s == nil {
		return nil
	}
	data, err := msf.ReadAll(s)
	if err != nil {
		return nil
	}
	table, err := omap.DecodeBytes(data)
	if err != nil {
		return nil
	}
	return table
}
