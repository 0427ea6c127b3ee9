// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package omap

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pdb/internal/base"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestTranslateRearranged(t *testing.T) {
	o := Omap{{0, 0}, {0x1000, 0x2000}, {0x1100, 0x2100}}
	require.True(t, o.IsValid())
	// Inside the moved run.
	require.Equal(t, uint32(0x2050), o.Translate(0x1050))
	// Below it, covered by the identity entry at zero.
	require.Equal(t, uint32(0x500), o.Translate(0x500))
}

func TestTranslateBounds(t *testing.T) {
	o := Omap{{0x1000, 0x4000}}
	// Below the first entry addresses pass through.
	require.Equal(t, uint32(0xFFF), o.Translate(0xFFF))
	require.Equal(t, uint32(0x4000), o.Translate(0x1000))
	require.Equal(t, uint32(0x4010), o.Translate(0x1010))

	require.Equal(t, uint32(42), Omap(nil).Translate(42))
}

func TestIsValid(t *testing.T) {
	require.True(t, Omap(nil).IsValid())
	require.True(t, Omap{{5, 1}}.IsValid())
	require.True(t, Omap{{1, 9}, {2, 3}}.IsValid())
	require.False(t, Omap{{2, 9}, {1, 3}}.IsValid())
	require.False(t, Omap{{1, 9}, {1, 3}}.IsValid())
}

func TestEncodeDecode(t *testing.T) {
	o := Omap{{0, 0}, {0x1000, 0x2000}, {0x1100, 0x2100}}
	enc := o.AppendEncoded(nil)
	require.Len(t, enc, 24)
	got, err := DecodeBytes(enc)
	require.NoError(t, err)
	require.Equal(t, o, got)

	got, err = DecodeBytes(nil)
	require.NoError(t, err)
	require.Empty(t, got)

	_, err = DecodeBytes(enc[:7])
	require.True(t, errors.Is(err, base.ErrCorruption))
}

func TestTranslateRandomized(t *testing.T) {
	seed := uint64(time.Now().UnixNano())
	t.Logf("seed: %d", seed)
	rng := rand.New(rand.NewSource(seed))

	// Reference translation by linear scan.
	ref := func(o Omap, addr uint32) uint32 {
		out := addr
		for _, e := range o {
			if e.RVA > addr {
				break
			}
			out = e.RVATo + (addr - e.RVA)
		}
		return out
	}

	for iter := 0; iter < 50; iter++ {
		var o Omap
		rva := uint32(0)
		for i, n := 0, rng.Intn(20); i < n; i++ {
			rva += 1 + uint32(rng.Intn(0x1000))
			o = append(o, Entry{RVA: rva, RVATo: uint32(rng.Intn(1 << 30))})
		}
		require.True(t, o.IsValid())
		for i := 0; i < 100; i++ {
			addr := uint32(rng.Intn(0x20000))
			require.Equal(t, ref(o, addr), o.Translate(addr), "addr %#x in %v", addr, o)
		}
	}
}

func TestTranslateDataDriven(t *testing.T) {
	var o Omap
	datadriven.RunTest(t, "testdata/translate", func(t *testing.T, d *datadriven.TestData) string {
		switch d.Cmd {
		case "define":
			o = nil
			if d.Input != "" {
				for _, line := range strings.Split(d.Input, "\n") {
					fields := strings.Fields(line)
					if len(fields) != 2 {
						d.Fatalf(t, "expected \"rva rvaTo\", got %q", line)
					}
					rva, err := strconv.ParseUint(fields[0], 0, 32)
					require.NoError(t, err)
					rvaTo, err := strconv.ParseUint(fields[1], 0, 32)
					require.NoError(t, err)
					o = append(o, Entry{RVA: uint32(rva), RVATo: uint32(rvaTo)})
				}
			}
			// The table must survive a trip through its stream form.
			decoded, err := DecodeBytes(o.AppendEncoded(nil))
			require.NoError(t, err)
			if len(o) > 0 {
				require.Equal(t, o, decoded)
			}
			if !o.IsValid() {
				return "invalid"
			}
			return "valid"
		case "translate":
			var buf bytes.Buffer
			for _, line := range strings.Split(d.Input, "\n") {
				addr, err := strconv.ParseUint(strings.TrimSpace(line), 0, 32)
				require.NoError(t, err)
				fmt.Fprintf(&buf, "0x%x -> 0x%x\n", addr, o.Translate(uint32(addr)))
			}
			return buf.String()
		default:
			d.Fatalf(t, "unknown command %q", d.Cmd)
			return ""
		}
	})
}
