// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dispatcher

import (
	"crypto/tls"
	"net"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/datacapsuled/counter"
	"github.com/bitmark-inc/datacapsuled/session"
)

const logName = "dispatcher"

// Configuration - the dispatcher's own settings; protocol constants
// live in session.Config
type Configuration struct {
	Listen             []string
	MaximumConnections uint64
	TLS                *tls.Config
}

// Server - one running accept loop set, stoppable as a group
type Server struct {
	log       *logger.L
	count     counter.Counter
	listeners []net.Listener
}

// Run - start listening on every configured address; each accepted
// connection is handled by its own goroutine, capped at
// MaximumConnections concurrently, matching doServeRPC's
// accept-then-spawn structure
func Run(cfg Configuration, sessionCfg session.Config) (*Server, error) {
	log := logger.New(logName)
	s := &Server{log: log}

	for _, listen := range cfg.Listen {
		l, err := netListen(listen, cfg.TLS)
		if nil != err {
			log.Errorf("listen error on %s: %s", listen, err)
			s.Stop()
			return nil, err
		}
		s.listeners = append(s.listeners, l)
		log.Infof("listening on %s", listen)
		go s.acceptLoop(l, cfg.MaximumConnections, sessionCfg)
	}
	return s, nil
}

func netListen(address string, tlsConfig *tls.Config) (net.Listener, error) {
	if nil != tlsConfig {
		return tls.Listen("tcp", address, tlsConfig)
	}
	return net.Listen("tcp", address)
}

func (s *Server) acceptLoop(listen net.Listener, maxConnections uint64, sessionCfg session.Config) {
	for {
		conn, err := listen.Accept()
		if nil != err {
			s.log.Errorf("accept error: %s", err)
			return
		}
		if s.count.Increment() > maxConnections {
			s.count.Decrement()
			conn.Close()
			continue
		}
		go func() {
			defer s.count.Decrement()
			handleConnection(conn, sessionCfg, s.log)
		}()
	}
}

// Stop - close every listener; in-flight connections finish on their
// own once their current frame read/write returns
func (s *Server) Stop() {
	for _, l := range s.listeners {
		l.Close()
	}
}

// Addr - the first listener's bound address, useful when Listen used
// a ":0" ephemeral port
func (s *Server) Addr() net.Addr {
	if 0 == len(s.listeners) {
		return nil
	}
	return s.listeners[0].Addr()
}
