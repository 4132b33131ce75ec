// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dispatcher

import (
	"context"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/datacapsuled/capstate"
	"github.com/bitmark-inc/datacapsuled/fault"
	"github.com/bitmark-inc/datacapsuled/session"
	"github.com/bitmark-inc/datacapsuled/wire"
)

// closeWatchInterval - how often the close watcher polls the socket
// for a peer disconnect while a Role.Handle call is in flight; bounds
// how late a mid-wait cancellation can land
const closeWatchInterval = 200 * time.Millisecond

// handleConnection - read the init message, select a session.Role,
// then loop: read frame → decode → Role.Handle → encode → write frame,
// until EOF/error or a protocol violation, matching spec.md §4.8
func handleConnection(conn net.Conn, cfg session.Config, log *logger.L) {
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	init, err := wire.ReadFrame(conn)
	if nil != err {
		log.Debugf("init frame error: %s", err)
		return
	}
	if nil == init.Init {
		log.Debugf("first frame was not Init")
		return
	}

	role, err := selectRole(ctx, init.Init, cfg)
	if nil != err {
		wire.WriteFrame(conn, &wire.Message{Error: &wire.ErrorResponse{
			Kind:    errorKind(err),
			Message: err.Error(),
		}})
		return
	}
	defer role.Close()

	for {
		req, err := wire.ReadFrame(conn)
		if nil != err {
			return
		}

		resp, err := handleWithCloseWatch(conn, cancel, func() (*wire.Message, error) {
			return role.Handle(req)
		})
		if nil != err {
			if nil != ctx.Err() {
				// the close watcher saw the peer go away while Handle
				// was blocked: release without a response
				log.Debugf("connection closed during request: %s", err)
				return
			}
			if fault.IsErrProtocol(err) {
				log.Debugf("protocol error, closing: %s", err)
				return
			}
			wire.WriteFrame(conn, &wire.Message{Error: &wire.ErrorResponse{
				Kind:    errorKind(err),
				Message: err.Error(),
			}})
			continue
		}

		if nil != resp {
			if err := wire.WriteFrame(conn, resp); nil != err {
				return
			}
		}
	}
}

// handleWithCloseWatch - run fn while a second goroutine polls conn
// for a peer disconnect, cancelling the connection's context the
// moment one is seen. A Role.Handle call may block for an arbitrary
// time (a Subscriber's wait_after parked in notifyhub.Topic.Wait) with
// no frame expected from the peer in the meantime, so handleConnection
// itself only learns of EOF/RST on its next wire.ReadFrame - too late
// to release anything fn is blocked on. The watcher and fn both touch
// conn only while the other is not reading it: the watcher's deadline
// is cleared and errgroup.Wait joins it before control returns to the
// caller's own wire.ReadFrame, so there is never a concurrent read.
func handleWithCloseWatch(conn net.Conn, cancel context.CancelFunc, fn func() (*wire.Message, error)) (*wire.Message, error) {
	g := new(errgroup.Group)
	done := make(chan struct{})

	g.Go(func() error {
		buf := make([]byte, 1)
		for {
			select {
			case <-done:
				conn.SetReadDeadline(time.Time{})
				return nil
			default:
			}
			conn.SetReadDeadline(time.Now().Add(closeWatchInterval))
			_, err := conn.Read(buf)
			if nil == err {
				// the protocol is strictly request/response; data
				// arriving while nothing was requested is as good as
				// a closed connection
				cancel()
				return nil
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			cancel()
			return nil
		}
	})

	resp, err := fn()
	close(done)
	conn.SetReadDeadline(time.Now())
	g.Wait()
	conn.SetReadDeadline(time.Time{})

	return resp, err
}

func selectRole(ctx context.Context, init *wire.Init, cfg session.Config) (session.Role, error) {
	if wire.RoleCreator == init.Role {
		return session.NewCreatorSession(), nil
	}

	capsule := capstate.Lookup(init.DatacapsuleID)
	if nil == capsule {
		return nil, fault.ErrDatacapsuleNotFound
	}

	switch init.Role {
	case wire.RoleWriter:
		return session.NewWriterSession(capsule, cfg)
	case wire.RoleReader:
		return session.NewReaderSession(capsule, cfg), nil
	case wire.RoleSubscriber:
		return session.NewSubscriberSession(ctx, capsule), nil
	default:
		return nil, fault.ErrUnknownRole
	}
}

func errorKind(err error) string {
	switch {
	case fault.IsErrVerification(err):
		return "verification"
	case fault.IsErrNotFound(err):
		return "not_found"
	case fault.IsErrResource(err):
		return "resource"
	case fault.IsErrContention(err):
		return "contention"
	default:
		return "protocol"
	}
}
