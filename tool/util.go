// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/pdb"
	"github.com/cockroachdb/pdb/dbi"
	"github.com/cockroachdb/pdb/msf"
	"github.com/cockroachdb/pdb/pdbinfo"
)

// summarize renders the identity lines shared by "info" and "diff": the
// header info stream identity plus the DBI header essentials.
func summarize(f *pdb.File) (string, error) {
	info, err := f.Info()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "guid       %s\n", info.GUID)
	fmt.Fprintf(&sb, "age        %d\n", info.Age)
	fmt.Fprintf(&sb, "signature  %s (%d)\n",
		time.Unix(int64(info.Signature), 0).UTC().Format(time.RFC3339), info.Signature)
	fmt.Fprintf(&sb, "version    %d\n", info.Version)
	fmt.Fprintf(&sb, "streams    %d\n", f.NumStreams())
	if hdr, err := f.DbiHeader(); err == nil {
		fmt.Fprintf(&sb, "machine    %s\n", dbi.MachineName(hdr.Machine))
		fmt.Fprintf(&sb, "dbi age    %d\n", hdr.Age)
	}
	return sb.String(), nil
}

func featureName(code uint32) string {
	switch code {
	case pdbinfo.FeatureVC110:
		return "vc110"
	case pdbinfo.FeatureVC140:
		return "vc140"
	case pdbinfo.FeatureNoTypeMerge:
		return "no-type-merge"
	case pdbinfo.FeatureMinimalDebugInfo:
		return "minimal-debug-info"
	}
	return fmt.Sprintf("0x%08x", code)
}

// streamIndexString renders a u16 stream index field, where 0xffff means
// absent.
func streamIndexString(v uint16) string {
	if v == 0xffff {
		return "-"
	}
	return msf.StreamID(v).String()
}

// fingerprint reads a stream and returns its length and content hash as
// display strings. Absent slots report "-".
func fingerprint(f *pdb.File, id msf.StreamID) (length, hash string) {
	s := f.Stream(id)
	if s == nil {
		return "-", "-"
	}
	data, err := msf.ReadAll(s)
	if err != nil {
		return "-", err.Error()
	}
	return fmt.Sprintf("%d", len(data)), fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// streamNames maps stream ids to display names: the fixed streams by
// convention, the rest through the named stream map and the debug
// header.
func streamNames(f *pdb.File) map[msf.StreamID]string {
	names := map[msf.StreamID]string{
		pdb.StreamPrevDirectory: "(old directory)",
		pdb.StreamHeaderInfo:    "(header info)",
		pdb.StreamTPI:           "(tpi)",
		pdb.StreamDBI:           "(dbi)",
	}
	info, err := f.Info()
	if err != nil {
		return names
	}
	for _, name := range info.Streams.Names() {
		id, _ := info.Streams.Get(name)
		names[id] = name
	}
	hdr, err := f.DbiHeader()
	if err != nil {
		return names
	}
	if hdr.SymRecordStream != 0xffff {
		names[msf.StreamID(hdr.SymRecordStream)] = "(symbol records)"
	}
	if dbiBytes, err := msf.ReadAll(f.Stream(pdb.StreamDBI)); err == nil {
		for slot := dbi.DbgSlot(0); slot < dbi.NumDbgSlots; slot++ {
			if id, err := hdr.DbgStream(dbiBytes, slot); err == nil && id != msf.InvalidStreamID {
				names[id] = fmt.Sprintf("(dbg %s)", slot)
			}
		}
	}
	return names
}
