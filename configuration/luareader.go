// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration

import (
	"github.com/bitmark-inc/datacapsuled/fault"
	"github.com/yuin/gluamapper"
	lua "github.com/yuin/gopher-lua"
)

// parseConfigurationFile - execute a Lua configuration script and
// map the table it returns onto config, a pointer to a struct tagged
// with `gluamapper`
func parseConfigurationFile(fileName string, config interface{}) error {
	L := lua.NewState()
	defer L.Close()

	L.OpenLibs()

	arg := &lua.LTable{}
	arg.Insert(0, lua.LString(fileName))
	L.SetGlobal("arg", arg)

	if err := L.DoFile(fileName); nil != err {
		return err
	}

	top, ok := L.Get(L.GetTop()).(*lua.LTable)
	if !ok {
		return fault.ErrInvalidStructPointer
	}

	mapper := gluamapper.Mapper{Option: gluamapper.Option{
		NameFunc: func(s string) string { return s },
		TagName:  "gluamapper",
	}}
	return mapper.Map(top, config)
}
