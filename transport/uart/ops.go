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

package uart

import (
	"context"
	"fmt"

	uhf "github.com/ZaparooProject/go-uhf"
	"github.com/ZaparooProject/go-uhf/internal/reader18"
)

// SetPower sets the RF output power in dBm.
func (r *Reader) SetPower(ctx context.Context, level int) error {
	if level < 0 || level > reader18.MaxPower {
		return fmt.Errorf("%w: power %d outside 0..%d", uhf.ErrInvalidParameter, level, reader18.MaxPower)
	}
	frame, err := r.exchange(ctx, reader18.SetOutputPowerCommand(r.cfg.Address, byte(level)), reader18.CmdSetOutputPower)
	if err != nil {
		return err
	}
	return r.checkStatus("set power", frame, uhf.ErrCommunicationFailed)
}

// GetPower reads the RF output power.
func (r *Reader) GetPower(ctx context.Context) (int, error) {
	info, err := r.readInfo(ctx)
	if err != nil {
		return 0, err
	}
	return int(info.Power), nil
}

// GetFrequencyMode reads the region and maps it to a frequency mode.
func (r *Reader) GetFrequencyMode(ctx context.Context) (int, error) {
	info, err := r.readInfo(ctx)
	if err != nil {
		return 0, err
	}
	mode, ok := reader18.ModeForBand(info.Region.Band)
	if !ok {
		return 0, fmt.Errorf("%w: band %d", uhf.ErrUnsupportedMode, info.Region.Band)
	}
	return int(mode), nil
}

// SetFrequencyMode selects the full channel range of a frequency mode.
func (r *Reader) SetFrequencyMode(ctx context.Context, mode byte) error {
	region, err := reader18.RegionForMode(mode)
	if err != nil {
		return fmt.Errorf("%w: %w", uhf.ErrUnsupportedMode, err)
	}
	frame, err := r.exchange(ctx, reader18.SetRegionCommand(r.cfg.Address, region), reader18.CmdSetRegion)
	if err != nil {
		return err
	}
	return r.checkStatus("set region", frame, uhf.ErrCommunicationFailed)
}

// SetFilter installs filter. The firmware has no standalone select
// command, so the filter is kept here and applied to inventory results and
// as the EPC mask of writes. Only byte-aligned EPC bank filters can be
// expressed that way.
func (r *Reader) SetFilter(_ context.Context, filter uhf.SelectFilter) error {
	if err := filter.Validate(); err != nil {
		return err
	}
	if _, err := maskFor(filter); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.filter = filter
	uhf.Debugf("filter set: %s", filter)
	return nil
}

// WriteMemory writes tag memory, selecting the tag by the request filter
// or else the installed one.
func (r *Reader) WriteMemory(ctx context.Context, req uhf.WriteRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	installed := r.currentFilter()
	filter := installed
	if req.Filter != nil {
		filter = *req.Filter
	}
	m, err := maskFor(filter)
	if err != nil {
		return err
	}

	data, err := uhf.DecodeHex(req.Data)
	if err != nil {
		return err
	}
	pwd, err := uhf.DecodeHex(req.Password)
	if err != nil {
		return err
	}

	params := reader18.WriteDataParams{
		Data:     data,
		EPC:      m.epc,
		Mem:      byte(req.Bank),
		WordPtr:  byte(req.WordOffset),
		MaskAddr: m.addr,
		MaskLen:  m.length,
	}
	copy(params.Password[:], pwd)

	packet, err := reader18.WriteDataCommand(r.cfg.Address, params)
	if err != nil {
		return fmt.Errorf("%w: %w", uhf.ErrInvalidParameter, err)
	}
	frame, err := r.exchange(ctx, packet, reader18.CmdWriteData)
	if err != nil {
		return err
	}
	if err := r.checkStatus("write "+req.Bank.String(), frame, uhf.ErrWriteRejected); err != nil {
		return err
	}

	if req.Filter == nil {
		r.followRewrite(installed, req, data)
	}
	return nil
}

// followRewrite keeps the installed filter pointing at the same tag after
// a write changed the EPC bits the filter matches on.
func (r *Reader) followRewrite(installed uhf.SelectFilter, req uhf.WriteRequest, data []byte) {
	updated, changed := retarget(installed, req.Bank, req.WordOffset, data)
	if !changed {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.filter == installed {
		r.filter = updated
		uhf.Debugf("filter follows rewritten tag: %s", updated)
	}
}

type mask struct {
	epc    []byte
	addr   byte
	length byte
}

// maskFor expresses filter as the EPC mask of a write command.
func maskFor(filter uhf.SelectFilter) (mask, error) {
	if filter.IsClear() {
		return mask{}, nil
	}
	if filter.Bank != uhf.BankEPC || filter.BitStart < uhf.EPCBitOffset ||
		(filter.BitStart-uhf.EPCBitOffset)%8 != 0 || filter.BitLength%8 != 0 {
		return mask{}, fmt.Errorf("%w: %s is not a byte-aligned EPC filter", uhf.ErrFilterRejected, filter)
	}

	pattern, err := uhf.DecodeHex(filter.Pattern)
	if err != nil {
		return mask{}, fmt.Errorf("%w: %w", uhf.ErrFilterRejected, err)
	}
	addr := int(filter.BitStart-uhf.EPCBitOffset) / 8
	end := addr + len(pattern)
	if end > 0xFF {
		return mask{}, fmt.Errorf("%w: %s is too long", uhf.ErrFilterRejected, filter)
	}

	epc := make([]byte, end+end%2)
	copy(epc[addr:], pattern)
	return mask{epc: epc, addr: byte(addr), length: byte(len(pattern))}, nil
}

func retarget(filter uhf.SelectFilter, bank uhf.MemoryBank, wordOffset uint32, data []byte) (uhf.SelectFilter, bool) {
	if filter.IsClear() || bank != uhf.BankEPC || filter.Bank != uhf.BankEPC || filter.BitStart%8 != 0 {
		return filter, false
	}
	pattern, err := uhf.DecodeHex(filter.Pattern)
	if err != nil {
		return filter, false
	}

	writeStart := wordOffset * uhf.WordBits
	writeEnd := writeStart + uint32(len(data))*8
	changed := false
	for i := range pattern {
		bit := filter.BitStart + uint32(i)*8
		if bit < writeStart || bit >= writeEnd {
			continue
		}
		b := data[(bit-writeStart)/8]
		if pattern[i] != b {
			pattern[i] = b
			changed = true
		}
	}
	if !changed {
		return filter, false
	}
	return uhf.BuildFilter(filter.Bank, filter.BitStart, uhf.HexString(pattern)), true
}
