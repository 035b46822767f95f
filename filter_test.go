// go-uhf
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-uhf.
//
// go-uhf is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-uhf is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-uhf; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package uhf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFilter(t *testing.T) {
	t.Parallel()

	f := BuildFilter(BankEPC, EPCBitOffset, "E2801160600002084B7A3C1D")
	assert.Equal(t, BankEPC, f.Bank)
	assert.Equal(t, uint32(32), f.BitStart)
	assert.Equal(t, uint32(96), f.BitLength)
	assert.False(t, f.IsClear())
	require.NoError(t, f.Validate())
}

func TestClearFilter(t *testing.T) {
	t.Parallel()

	f := ClearFilter()
	assert.Equal(t, SelectFilter{Bank: BankEPC, BitStart: 32, BitLength: 0, Pattern: ""}, f)
	assert.True(t, f.IsClear())
	require.NoError(t, f.Validate())
	assert.Equal(t, "filter(none)", f.String())
}

func TestSelectFilter_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		filter  SelectFilter
		wantErr bool
	}{
		{name: "valid", filter: BuildFilter(BankEPC, 32, "ABCD")},
		{name: "lower case hex", filter: BuildFilter(BankTID, 0, "e280")},
		{name: "not hex", filter: BuildFilter(BankEPC, 32, "XYZ0"), wantErr: true},
		{
			name:    "length mismatch",
			filter:  SelectFilter{Bank: BankEPC, BitStart: 32, BitLength: 8, Pattern: "ABCD"},
			wantErr: true,
		},
		{name: "bad bank", filter: SelectFilter{Bank: 9, BitStart: 32}, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.filter.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidParameter)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSelectFilter_MatchesEPC(t *testing.T) {
	t.Parallel()

	epc := []byte{0xE2, 0x80, 0x11, 0x60}

	assert.True(t, BuildFilter(BankEPC, 32, "E2801160").MatchesEPC(epc))
	assert.True(t, BuildFilter(BankEPC, 32, "E2").MatchesEPC(epc), "prefix match")
	assert.True(t, BuildFilter(BankEPC, 40, "80").MatchesEPC(epc), "offset match")
	assert.True(t, BuildFilter(BankEPC, 36, "2").MatchesEPC(epc), "nibble offset")
	assert.False(t, BuildFilter(BankEPC, 32, "E3").MatchesEPC(epc))
	assert.False(t, BuildFilter(BankEPC, 32, "E280116000").MatchesEPC(epc), "pattern longer than EPC")
	assert.False(t, BuildFilter(BankTID, 0, "E2").MatchesEPC(epc), "other banks cannot match")
	assert.False(t, BuildFilter(BankEPC, 16, "30").MatchesEPC(epc), "PC word region")
	assert.True(t, ClearFilter().MatchesEPC(epc))
	assert.True(t, ClearFilter().MatchesEPC(nil))
}
