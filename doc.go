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

/*
Package uhf provides the EPC memory protocol layer for driving UHF (EPC Gen2)
RFID readers from Go.

The package is transport-agnostic: a reader driver implements the Reader
interface, and this package supplies the pieces every driver and tool needs
on top of it:

  - EPC codec: PC word decoding (EPC length in words), EPC normalization,
    BCD packing of decimal input and fixed 96-bit EPC sizing
  - Memory bank model: Reserved, EPC, TID and User banks with their
    reader-native identifiers
  - Tag selection filters that scope writes to one tag among several

Basic Usage:

	import (
	    "github.com/ZaparooProject/go-uhf"
	    "github.com/ZaparooProject/go-uhf/transport/uart"
	)

	reader, err := uart.New("/dev/ttyUSB0")
	if err != nil {
	    log.Fatal(err)
	}
	if err := reader.Init(ctx); err != nil {
	    log.Fatal(err)
	}
	defer reader.Release()

	tag, err := reader.ReadSingleTag(ctx)
	if err != nil {
	    log.Fatal(err)
	}
	if tag != nil {
	    fmt.Println("EPC:", tag.NormalizedEPC())
	}

Writing an EPC:

	filter := uhf.BuildFilter(uhf.BankEPC, uhf.EPCBitOffset, tag.EPC)
	if err := reader.SetFilter(ctx, filter); err != nil {
	    return err
	}
	defer reader.SetFilter(ctx, uhf.ClearFilter())

	payload := uhf.EncodeEPCDigits("123")
	pc := uhf.ComputePCWord(uhf.EPCWidthBytes)

The inventory package implements bounded and continuous inventory sessions
and the bridge package implements the one-command-per-invocation processor
used by cmd/uhfbridge.

Error Handling:

Operations return wrapped sentinel errors that can be inspected:

	if errors.Is(err, uhf.ErrFilterRejected) {
	    // the tag was never written
	}

Thread Safety:

Readers are not thread-safe. One caller owns a reader from Init to Release.
*/
package uhf
