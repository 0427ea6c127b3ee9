// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestCorruptionMarking(t *testing.T) {
	err := CorruptionErrorf("bad page %d", 7)
	require.True(t, errors.Is(err, ErrCorruption))
	require.Contains(t, err.Error(), "bad page 7")

	wrapped := errors.Wrap(err, "opening container")
	require.True(t, errors.Is(wrapped, ErrCorruption))

	plain := errors.New("i/o timeout")
	require.False(t, errors.Is(plain, ErrCorruption))
	require.True(t, errors.Is(MarkCorruptionError(plain), ErrCorruption))

	// Marking twice is a no-op.
	marked := MarkCorruptionError(plain)
	require.Equal(t, marked, MarkCorruptionError(marked))
}
