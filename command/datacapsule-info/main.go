// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// datacapsule-info opens a datacapsuled data directory read-only and
// prints the stored state of one Datacapsule, or pool row counts for
// the whole store when no Datacapsule id is given.
package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"

	"github.com/bitmark-inc/datacapsuled/crypto"
	"github.com/bitmark-inc/datacapsuled/storage"
)

func main() {
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "data-directory", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'd'},
		{Long: "capsule", HasArg: getoptions.OPTIONAL_ARGUMENT, Short: 'c'},
	}

	program, options, _, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("option parse error: %s", err)
	}

	if len(options["help"]) > 0 {
		exitwithstatus.Message("usage: %s --data-directory=DIR [--capsule=HEX]", program)
	}

	if 0 == len(options["data-directory"]) {
		exitwithstatus.Message("%s: --data-directory is required", program)
	}
	directory := options["data-directory"][0]

	if err := storage.Initialise(directory, storage.ReadOnly); nil != err {
		exitwithstatus.Message("storage open error: %s", err)
	}
	defer storage.Finalise()

	if len(options["capsule"]) > 0 {
		if err := printCapsule(options["capsule"][0]); nil != err {
			exitwithstatus.Message("%s", err)
		}
	} else {
		printTableCounts()
	}

	os.Exit(0)
}

func printCapsule(hexID string) error {
	raw, err := hex.DecodeString(hexID)
	if nil != err {
		return fmt.Errorf("invalid --capsule value: %s", err)
	}
	var id crypto.Digest
	if err := crypto.DigestFromBytes(&id, raw); nil != err {
		return err
	}

	meta, found, err := storage.ReadMeta(id)
	if nil != err {
		return err
	}
	if !found {
		return fmt.Errorf("no such datacapsule: %s", id)
	}
	latest, err := storage.ReadLatest(id)
	if nil != err {
		return err
	}

	fmt.Printf("datacapsule:     %s\n", id)
	fmt.Printf("creator_pubkey:  %x\n", meta.CreatorPubkey)
	fmt.Printf("writer_pubkey:   %x\n", meta.WriterPubkey)
	fmt.Printf("description:     %s\n", meta.Description)
	fmt.Printf("latest_seq:      %d\n", latest.Seq)
	fmt.Printf("latest_root:     %s\n", latest.Root)
	fmt.Printf("previous_seq:    %d\n", latest.PreviousSeq)
	fmt.Printf("previous_root:   %s\n", latest.PreviousRoot)
	return nil
}

func printTableCounts() {
	counts := storage.TableCounts()
	for _, name := range []string{"capsule_meta", "latest", "bindata", "recordblocks", "treeblocks", "sigblocks", "seqblocks"} {
		fmt.Printf("%-14s %d\n", name, counts[name])
	}
}
