// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"fmt"

	"github.com/cockroachdb/pdb"
	"github.com/cockroachdb/pdb/dbi"
	"github.com/cockroachdb/pdb/internal/base"
	"github.com/cockroachdb/pdb/msf"
	"github.com/cockroachdb/pdb/vfs"
	"github.com/spf13/cobra"
)

// pdbT implements the program database introspection commands, including
// both configuration state and the commands themselves.
type pdbT struct {
	Info    *cobra.Command
	Streams *cobra.Command
	Dbi     *cobra.Command
	Omap    *cobra.Command
	Tpi     *cobra.Command
	Syms    *cobra.Command
	Diff    *cobra.Command

	fs     vfs.FS
	logger base.Logger

	chart       bool
	omapToSrc   bool
	omapFromSrc bool
	translate   string
	filter      string
}

func newPDB(fs vfs.FS, logger base.Logger) *pdbT {
	p := &pdbT{
		fs:     fs,
		logger: logger,
	}

	p.Info = &cobra.Command{
		Use:   "info <pdb-file>",
		Short: "print the file identity",
		Long: `
Print the identity of a program database: GUID, age, signature, version,
machine, stream count, named streams, and feature codes.
`,
		Args: cobra.ExactArgs(1),
		Run:  p.runInfo,
	}
	p.Streams = &cobra.Command{
		Use:   "streams <pdb-file>",
		Short: "list the streams",
		Long: `
List every slot of the stream table with its length, page count, content
fingerprint, and name when the named stream map or a fixed id names it.
`,
		Args: cobra.ExactArgs(1),
		Run:  p.runStreams,
	}
	p.Dbi = &cobra.Command{
		Use:   "dbi <pdb-file>",
		Short: "print the debug info header",
		Long: `
Print the fixed DBI header fields, the variable substream sizes, and the
debug header slots naming auxiliary streams.
`,
		Args: cobra.ExactArgs(1),
		Run:  p.runDbi,
	}
	p.Omap = &cobra.Command{
		Use:   "omap <pdb-file>",
		Short: "print an address translation table",
		Long: `
Print the OMAP table stored for one of the two translation directions, or
translate a single address through it.
`,
		Args: cobra.ExactArgs(1),
		Run:  p.runOmap,
	}
	p.Tpi = &cobra.Command{
		Use:   "tpi <pdb-file>",
		Short: "walk the type stream",
		Long: `
Walk the type stream and print the user-defined types it materializes,
with their sizes and field counts.
`,
		Args: cobra.ExactArgs(1),
		Run:  p.runTpi,
	}
	p.Syms = &cobra.Command{
		Use:   "syms <pdb-file>",
		Short: "print the public symbols",
		Long: `
Scan the symbol record stream and print the public symbols with their
relative virtual addresses. Addresses are computed through the section
header table and translated through the OMAP-from-source table when the
file carries one.
`,
		Args: cobra.ExactArgs(1),
		Run:  p.runSyms,
	}
	p.Diff = &cobra.Command{
		Use:   "diff <a-pdb-file> <b-pdb-file>",
		Short: "compare two files",
		Long: `
Compare two program databases stream by stream using content
fingerprints, then print a unified diff of their identity summaries.
`,
		Args: cobra.ExactArgs(2),
		Run:  p.runDiff,
	}

	p.Streams.Flags().BoolVar(
		&p.chart, "chart", false, "render the stream size profile as a chart")
	p.Omap.Flags().BoolVar(
		&p.omapToSrc, "to-src", false, "use the omap_to_src table")
	p.Omap.Flags().BoolVar(
		&p.omapFromSrc, "from-src", false, "use the omap_from_src table (default)")
	p.Omap.Flags().StringVar(
		&p.translate, "translate", "", "translate a single address instead of dumping the table")
	p.Tpi.Flags().StringVar(
		&p.filter, "filter", "", "only print types whose name matches the glob")
	return p
}

func (p *pdbT) open(path string) (*pdb.File, error) {
	return pdb.Open(p.fs, path, pdb.Options{Logger: p.logger})
}

func (p *pdbT) runInfo(cmd *cobra.Command, args []string) {
	stdout, stderr := cmd.OutOrStdout(), cmd.OutOrStderr()
	f, err := p.open(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	defer f.Close()

	s, err := summarize(f)
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	fmt.Fprint(stdout, s)

	info, err := f.Info()
	if err != nil {
		return
	}
	if names := info.Streams.Names(); len(names) > 0 {
		fmt.Fprintf(stdout, "named streams:\n")
		for _, name := range names {
			id, _ := info.Streams.Get(name)
			fmt.Fprintf(stdout, "  %-24s %s\n", name, id)
		}
	}
	if len(info.Features) > 0 {
		fmt.Fprintf(stdout, "features:")
		for _, code := range info.Features {
			fmt.Fprintf(stdout, " %s", featureName(code))
		}
		fmt.Fprintf(stdout, "\n")
	}
}

func (p *pdbT) runDbi(cmd *cobra.Command, args []string) {
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
	fmt.Fprintf(stdout, "version               %d\n", hdr.VersionHeader)
	fmt.Fprintf(stdout, "age                   %d\n", hdr.Age)
	fmt.Fprintf(stdout, "machine               %s\n", dbi.MachineName(hdr.Machine))
	fmt.Fprintf(stdout, "build number          0x%04x\n", hdr.BuildNumber)
	fmt.Fprintf(stdout, "global symbol stream  %s\n", streamIndexString(hdr.GlobalStreamIndex))
	fmt.Fprintf(stdout, "public symbol stream  %s\n", streamIndexString(hdr.PublicStreamIndex))
	fmt.Fprintf(stdout, "symbol record stream  %s\n", streamIndexString(hdr.SymRecordStream))
	fmt.Fprintf(stdout, "module info           %d bytes\n", hdr.ModInfoSize)
	fmt.Fprintf(stdout, "section contribution  %d bytes\n", hdr.SectionContributionSize)
	fmt.Fprintf(stdout, "section map           %d bytes\n", hdr.SectionMapSize)
	fmt.Fprintf(stdout, "file info             %d bytes\n", hdr.FileInfoSize)
	fmt.Fprintf(stdout, "type server map       %d bytes\n", hdr.TypeServerMapSize)
	fmt.Fprintf(stdout, "ec substream          %d bytes\n", hdr.ECSubstreamSize)
	fmt.Fprintf(stdout, "debug header          %d bytes\n", hdr.DbgHeaderSize)

	dbiBytes, err := msf.ReadAll(f.Stream(pdb.StreamDBI))
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	fmt.Fprintf(stdout, "debug header slots:\n")
	for slot := dbi.DbgSlot(0); slot < dbi.NumDbgSlots; slot++ {
		id, err := hdr.DbgStream(dbiBytes, slot)
		switch {
		case err != nil:
			fmt.Fprintf(stdout, "  %-22s %s\n", slot, err)
		case id == msf.InvalidStreamID:
			fmt.Fprintf(stdout, "  %-22s -\n", slot)
		default:
			fmt.Fprintf(stdout, "  %-22s %s\n", slot, id)
		}
	}
}
