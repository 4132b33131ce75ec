// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"crypto/tls"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/datacapsuled/background"
	"github.com/bitmark-inc/datacapsuled/capstate"
	"github.com/bitmark-inc/datacapsuled/configuration"
	"github.com/bitmark-inc/datacapsuled/dispatcher"
	"github.com/bitmark-inc/datacapsuled/fault"
	"github.com/bitmark-inc/datacapsuled/session"
	"github.com/bitmark-inc/datacapsuled/storage"
	"github.com/bitmark-inc/datacapsuled/version"
)

// statsLogger - a background.Process that periodically logs table row
// counts, useful for watching growth without a separate admin tool
type statsLogger struct {
	log *logger.L
}

func (s *statsLogger) Run(args interface{}, shutdown <-chan struct{}) {
	interval := args.(time.Duration)
	timer := time.NewTicker(interval)
	defer timer.Stop()
	for {
		select {
		case <-shutdown:
			return
		case <-timer.C:
			s.log.Infof("table counts: %v", storage.TableCounts())
		}
	}
}

func main() {
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "quiet", HasArg: getoptions.NO_ARGUMENT, Short: 'q'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
	}

	program, options, _, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		fmt.Printf("%s\n", version.Version)
		return
	}

	if len(options["help"]) > 0 {
		exitwithstatus.Message("usage: %s [--help] [--verbose] [--quiet] --config-file=FILE", program)
	}

	if 1 != len(options["config-file"]) {
		exitwithstatus.Message("%s: exactly one config-file option is required, %d were detected", program, len(options["config-file"]))
	}

	configurationFile := options["config-file"][0]
	theConfiguration, err := configuration.GetConfiguration(configurationFile)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	if err := logger.Initialise(logger.Configuration{
		Directory: theConfiguration.Logging.Directory,
		File:      theConfiguration.Logging.File,
		Size:      theConfiguration.Logging.Size,
		Count:     theConfiguration.Logging.Count,
		Console:   theConfiguration.Logging.Console,
		Levels:    theConfiguration.Logging.Levels,
	}); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version.Version)
	log.Debugf("configuration: %#v", theConfiguration)

	if "" != theConfiguration.PidFile {
		lockFile, err := os.OpenFile(theConfiguration.PidFile, os.O_WRONLY|os.O_EXCL|os.O_CREATE, os.ModeExclusive|0600)
		if nil != err {
			if os.IsExist(err) {
				exitwithstatus.Message("%s: another instance is already running", program)
			}
			exitwithstatus.Message("%s: PID file: %q creation failed, error: %s", program, theConfiguration.PidFile, err)
		}
		fmt.Fprintf(lockFile, "%d\n", os.Getpid())
		lockFile.Close()
		defer os.Remove(theConfiguration.PidFile)
	}

	if err := fault.Initialise(); nil != err {
		log.Criticalf("fault initialise error: %s", err)
		exitwithstatus.Message("fault initialise error: %s", err)
	}
	defer fault.Finalise()

	log.Info("initialise storage")
	if err := storage.Initialise(theConfiguration.Storage.Directory, storage.ReadWrite); nil != err {
		log.Criticalf("storage initialise error: %s", err)
		exitwithstatus.Message("storage initialise error: %s", err)
	}
	defer storage.Finalise()

	log.Info("initialise capsule registry")
	if err := capstate.Initialise(); nil != err {
		log.Criticalf("capstate initialise error: %s", err)
		exitwithstatus.Message("capstate initialise error: %s", err)
	}
	defer capstate.Finalise()

	sessionConfig := session.Config{
		Fanout:            theConfiguration.MerkleFanout,
		HashCacheCapacity: theConfiguration.HashCacheCapacity,
		SigAvoidMaxExtra:  theConfiguration.SigAvoidMaxExtraHashes,
		MaxStagedBytes:    64 * 1024 * 1024,
		WriteLimiter:      rate.NewLimiter(rate.Limit(theConfiguration.Network.WriteBandwidth), int(theConfiguration.Network.WriteBandwidth)),
	}

	var tlsConfig *tls.Config
	if "" != theConfiguration.Network.Certificate {
		cert, err := tls.LoadX509KeyPair(theConfiguration.Network.Certificate, theConfiguration.Network.PrivateKey)
		if nil != err {
			log.Criticalf("tls certificate load error: %s", err)
			exitwithstatus.Message("tls certificate load error: %s", err)
		}
		tlsConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
	}

	log.Info("starting dispatcher")
	server, err := dispatcher.Run(dispatcher.Configuration{
		Listen:             theConfiguration.Network.Listen,
		MaximumConnections: uint64(theConfiguration.Network.MaximumConnections),
		TLS:                tlsConfig,
	}, sessionConfig)
	if nil != err {
		log.Criticalf("dispatcher run error: %s", err)
		exitwithstatus.Message("dispatcher run error: %s", err)
	}

	processes := background.Processes{
		&statsLogger{log: logger.New("stats")},
	}
	maintenance := background.Start(processes, 5*time.Minute)
	defer maintenance.Stop()

	if 0 == len(options["quiet"]) {
		fmt.Printf("\n\nWaiting for CTRL-C (SIGINT) or 'kill <pid>' (SIGTERM)…\n")
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	sig := <-ch
	log.Infof("received signal: %v", sig)
	if 0 == len(options["quiet"]) {
		fmt.Printf("\nreceived signal: %v\n", sig)
		fmt.Printf("\nshutting down…\n")
	}

	log.Info("stopping dispatcher")
	server.Stop()
}
