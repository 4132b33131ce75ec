// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"
)

// tables - the exported pool handles, one per logical table of
// spec.md §4.6. All fields must be exported or reflection below will
// panic while wiring them up.
type tables struct {
	CapsuleMeta  *PoolHandle `prefix:"M"`
	Latest       *PoolHandle `prefix:"L"`
	BinData      *PoolHandle `prefix:"B"`
	RecordBlocks *PoolHandle `prefix:"R"`
	TreeBlocks   *PoolHandle `prefix:"T"`
	SigBlocks    *PoolHandle `prefix:"S"`
	SeqBlocks    *PoolHandle `prefix:"Q"`
}

// Pool - the wired set of table handles, valid after Initialise
var Pool tables

var poolData struct {
	sync.RWMutex
	db    *leveldb.DB
	cache Cache
}

// ReadOnly / ReadWrite - open modes for Initialise
const (
	ReadOnly  = true
	ReadWrite = false
)

// Initialise - open the database and wire up Pool's fields by
// reflecting over its prefix tags, the way bitmarkd's storage setup
// wires its own pools struct.
func Initialise(directory string, readOnly bool) error {
	poolData.Lock()
	defer poolData.Unlock()

	if nil != poolData.db {
		return fmt.Errorf("storage: already initialised")
	}

	opt := &ldb_opt.Options{
		ErrorIfMissing: readOnly,
		ReadOnly:       readOnly,
	}
	db, err := leveldb.OpenFile(directory, opt)
	if nil != err {
		return err
	}
	poolData.db = db
	poolData.cache = newCache()

	poolType := reflect.TypeOf(Pool)
	poolValue := reflect.ValueOf(&Pool).Elem()

	for i := 0; i < poolType.NumField(); i += 1 {
		fieldInfo := poolType.Field(i)
		prefixTag := fieldInfo.Tag.Get("prefix")
		if 1 != len(prefixTag) {
			db.Close()
			poolData.db = nil
			return fmt.Errorf("storage: pool %s has invalid prefix tag %q", fieldInfo.Name, prefixTag)
		}
		p := &PoolHandle{prefix: prefixTag[0]}
		poolValue.Field(i).Set(reflect.ValueOf(p))
	}

	return nil
}

// Finalise - close the database
func Finalise() error {
	poolData.Lock()
	defer poolData.Unlock()
	if nil == poolData.db {
		return nil
	}
	err := poolData.db.Close()
	poolData.db = nil
	return err
}
