// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bitmark-inc/datacapsuled/util"
)

// default values, applied before the configuration file is parsed
const (
	defaultPidFile            = "datacapsuled.pid"
	defaultStorageDirectory   = "data"
	defaultMerkleFanout       = 2
	defaultHashCacheCapacity  = 1024
	defaultHashCachePolicy    = "direct-mapped"
	defaultSigAvoidMaxExtra   = 4
	defaultHashWidth          = 32
	defaultSignatureScheme    = "ed25519"
	defaultSymmetricCipher    = "none"
	defaultMaximumConnections = 100
	defaultWriteBandwidth     = 10 * 1024 * 1024 // 10MB/s per Writer connection
	minWriteBandwidth         = 1000000          // 1Mbps, same floor as the RPC bandwidth check
	defaultLogDirectory       = "log"
	defaultLogFile            = "datacapsuled.log"
	defaultLogCount           = 10
	defaultLogSize            = 1024 * 1024
)

// LoglevelMap - per-channel log levels
type LoglevelMap map[string]string

var defaultLogLevels = LoglevelMap{
	"main":       "info",
	"dispatcher": "info",
	"DEFAULT":    "critical",
}

// StorageType - the embedded key-value store's location
type StorageType struct {
	Directory string `gluamapper:"directory"`
}

// NetworkType - the TCP listen configuration, optionally with TLS
type NetworkType struct {
	Listen             []string `gluamapper:"listen"`
	MaximumConnections int      `gluamapper:"maximum_connections"`
	Certificate        string   `gluamapper:"certificate"`
	PrivateKey         string   `gluamapper:"private_key"`
	WriteBandwidth     float64  `gluamapper:"write_bandwidth"`
}

// LoggerType - log file rotation and per-channel levels
type LoggerType struct {
	Directory string            `gluamapper:"directory"`
	File      string            `gluamapper:"file"`
	Size      int               `gluamapper:"size"`
	Count     int               `gluamapper:"count"`
	Console   bool              `gluamapper:"console"`
	Levels    map[string]string `gluamapper:"levels"`
}

// Configuration - the complete set of options named by spec.md §6
type Configuration struct {
	DataDirectory string      `gluamapper:"data_directory"`
	PidFile       string      `gluamapper:"pidfile"`
	Storage       StorageType `gluamapper:"storage"`
	Network       NetworkType `gluamapper:"network"`

	MerkleFanout           int    `gluamapper:"merkle_fanout"`
	HashCacheCapacity      int    `gluamapper:"hash_cache_capacity"`
	HashCachePolicy        string `gluamapper:"hash_cache_policy"`
	SigAvoidMaxExtraHashes int    `gluamapper:"sig_avoid_max_extra_hashes"`
	HashWidth              int    `gluamapper:"hash_width"`
	SignatureScheme        string `gluamapper:"signature_scheme"`
	SymmetricCipher        string `gluamapper:"symmetric_cipher"`

	Logging LoggerType `gluamapper:"logging"`
}

// GetConfiguration - read, default, and validate the configuration
// file named by configurationFileName
func GetConfiguration(configurationFileName string) (*Configuration, error) {
	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := &Configuration{
		DataDirectory: dataDirectory,
		PidFile:       defaultPidFile,
		Storage:       StorageType{Directory: defaultStorageDirectory},
		Network:       NetworkType{MaximumConnections: defaultMaximumConnections, WriteBandwidth: defaultWriteBandwidth},

		MerkleFanout:           defaultMerkleFanout,
		HashCacheCapacity:      defaultHashCacheCapacity,
		HashCachePolicy:        defaultHashCachePolicy,
		SigAvoidMaxExtraHashes: defaultSigAvoidMaxExtra,
		HashWidth:              defaultHashWidth,
		SignatureScheme:        defaultSignatureScheme,
		SymmetricCipher:        defaultSymmetricCipher,

		Logging: LoggerType{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    defaultLogLevels,
		},
	}

	if err := parseConfigurationFile(configurationFileName, options); nil != err {
		return nil, err
	}

	if options.MerkleFanout < 2 {
		return nil, fmt.Errorf("merkle_fanout must be at least 2, got %d", options.MerkleFanout)
	}
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, fmt.Errorf("data_directory %q is not a valid directory", options.DataDirectory)
	}
	options.DataDirectory = filepath.Clean(options.DataDirectory)

	mustBeAbsolute := []*string{
		&options.PidFile,
		&options.Storage.Directory,
		&options.Network.Certificate,
		&options.Network.PrivateKey,
		&options.Logging.Directory,
	}
	for _, f := range mustBeAbsolute {
		if "" != *f {
			*f = util.EnsureAbsolute(options.DataDirectory, *f)
		}
	}

	for _, d := range []*string{&options.Storage.Directory, &options.Logging.Directory} {
		if err := os.MkdirAll(*d, 0700); nil != err {
			return nil, err
		}
	}

	for _, listen := range options.Network.Listen {
		if _, err := util.CanonicalIPandPort(listen); nil != err {
			return nil, fmt.Errorf("network.listen %q: %s", listen, err)
		}
	}
	if options.Network.WriteBandwidth < minWriteBandwidth {
		return nil, fmt.Errorf("network.write_bandwidth %v is below the %d bps floor", options.Network.WriteBandwidth, minWriteBandwidth)
	}
	if "" != options.Network.Certificate && "" == options.Network.PrivateKey {
		return nil, fmt.Errorf("network.certificate requires network.private_key")
	}
	for _, f := range []string{options.Network.Certificate, options.Network.PrivateKey} {
		if "" != f && !util.EnsureFileExists(f) {
			return nil, fmt.Errorf("file does not exist: %q", f)
		}
	}

	return options, nil
}
