// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"fmt"

	"github.com/cockroachdb/pdb"
	"github.com/cockroachdb/pdb/msf"
	"github.com/olekukonko/tablewriter"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func (p *pdbT) runDiff(cmd *cobra.Command, args []string) {
	stdout, stderr := cmd.OutOrStdout(), cmd.OutOrStderr()

	var fa, fb *pdb.File
	var g errgroup.Group
	g.Go(func() error {
		var err error
		fa, err = p.open(args[0])
		return err
	})
	g.Go(func() error {
		var err error
		fb, err = p.open(args[1])
		return err
	})
	err := g.Wait()
	defer func() {
		if fa != nil {
			fa.Close()
		}
		if fb != nil {
			fb.Close()
		}
	}()
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}

	n := fa.NumStreams()
	if m := fb.NumStreams(); m > n {
		n = m
	}
	tbl := tablewriter.NewWriter(stdout)
	tbl.SetHeader([]string{"ID", "A LENGTH", "A XXHASH64", "B LENGTH", "B XXHASH64", "DIFF"})
	differing := 0
	for id := msf.StreamID(0); int(id) < n; id++ {
		aLen, aHash := fingerprint(fa, id)
		bLen, bHash := fingerprint(fb, id)
		marker := ""
		if aLen != bLen || aHash != bHash {
			marker = "*"
			differing++
		}
		tbl.Append([]string{id.String(), aLen, aHash, bLen, bHash, marker})
	}
	tbl.Render()
	fmt.Fprintf(stdout, "%d of %d streams differ\n", differing, n)

	aSummary, err := summarize(fa)
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	bSummary, err := summarize(fb)
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(aSummary),
		B:        difflib.SplitLines(bSummary),
		FromFile: args[0],
		ToFile:   args[1],
		Context:  3,
	})
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	if text == "" {
		fmt.Fprintf(stdout, "identical summaries\n")
		return
	}
	fmt.Fprint(stdout, text)
}
