// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package tool implements the introspection commands of the pdb binary.
// Each command opens a program database read-only, prints what it finds
// to the command's stdout, and reports per-file problems to stderr
// without aborting the remaining arguments.
package tool

import (
	"github.com/cockroachdb/pdb/internal/base"
	"github.com/cockroachdb/pdb/vfs"
	"github.com/spf13/cobra"
)

// T is the container for all of the introspection tools.
type T struct {
	Commands []*cobra.Command
	pdb      *pdbT

	fs     vfs.FS
	logger base.Logger
}

// Option configures the tool.
type Option func(*T)

// WithFS sets the filesystem the tools read through. The default is the
// operating system filesystem.
func WithFS(fs vfs.FS) Option {
	return func(t *T) { t.fs = fs }
}

// WithLogger routes library diagnostics, such as the type walker's
// duplicate-name notes, to l.
func WithLogger(l base.Logger) Option {
	return func(t *T) { t.logger = l }
}

// New creates a new introspection tool.
func New(opts ...Option) *T {
	t := &T{
		fs:     vfs.Default,
		logger: base.DefaultLogger{},
	}
	for _, opt := range opts {
		opt(t)
	}

	t.pdb = newPDB(t.fs, t.logger)
	t.Commands = []*cobra.Command{
		t.pdb.Info,
		t.pdb.Streams,
		t.pdb.Dbi,
		t.pdb.Omap,
		t.pdb.Tpi,
		t.pdb.Syms,
		t.pdb.Diff,
	}
	return t
}
