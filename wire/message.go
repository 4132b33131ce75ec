// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"github.com/bitmark-inc/datacapsuled/crypto"
	"github.com/bitmark-inc/datacapsuled/merkle"
)

// Role - the Init message's role selector
type Role int

const (
	RoleCreator Role = iota
	RoleWriter
	RoleReader
	RoleSubscriber
)

func (r Role) String() string {
	switch r {
	case RoleCreator:
		return "Creator"
	case RoleWriter:
		return "Writer"
	case RoleReader:
		return "Reader"
	case RoleSubscriber:
		return "Subscriber"
	default:
		return "Unknown"
	}
}

// Init - the first message on every connection
type Init struct {
	Role          Role
	DatacapsuleID crypto.Digest
}

// CreateRequest / CreateResponse - Creator role, spec.md §4.4.1
type CreateRequest struct {
	WriterPubkey crypto.PublicKey
	Description  []byte
	CreatorSig   crypto.Signature
	CreatorPub   crypto.PublicKey
}

type CreateResponse struct {
	OK bool
}

// WriteRequest - Writer role's stage of spec.md §4.4.2; the server
// answers every one with a WriteAck
type WriteRequest struct {
	EncryptedBytes []byte
	Seq            uint64
}

// WriteAck - framing-level acknowledgement spec.md §4.4.2 allows
type WriteAck struct {
	OK bool
}

// CommitRequest / CommitResponse - Writer role's commit
type CommitRequest struct {
	ClientRoot       crypto.Digest
	ClientSignedRoot crypto.Signature
	IncludePrevRoot  bool
}

type CommitResponse struct {
	OK               bool
	ServerSignedRoot crypto.Signature
	Root             crypto.Digest
}

// ReadRequest / ReadResponse - Reader role's read
type ReadRequest struct {
	Hash crypto.Digest
}

type ReadResponse struct {
	Found bool
	Bytes []byte
}

// ProveRequest / ProveResponse - Reader role's prove
type ProveRequest struct {
	Hash crypto.Digest
}

type ProveResponse struct {
	Proof []ProofElement
}

// ProofElement - the wire shape of merkle.ProofElement: exactly one
// of SignedRoot or Block is populated
type ProofElement struct {
	SignedRoot *crypto.SignedHash
	Block      *merkle.HashBlock
}

// StartCacheRequest - Reader role's optional cache-sync, spec.md §4.4.3
type StartCacheRequest struct {
	Hashes []crypto.Digest
}

type StartCacheResponse struct {
	OK bool
}

// GetLastNumRequest / Response - Subscriber role
type GetLastNumRequest struct{}

type GetLastNumResponse struct {
	Seq uint64
}

// NameFromNumRequest / Response - Subscriber role
type NameFromNumRequest struct {
	Seq uint64
}

type NameFromNumResponse struct {
	Found bool
	Hash  crypto.Digest
}

// NumFromNameRequest / Response - Subscriber role
type NumFromNameRequest struct {
	Hash crypto.Digest
}

type NumFromNameResponse struct {
	Found bool
	Seq   uint64
}

// WaitAfterRequest / Response - Subscriber role's blocking wait
type WaitAfterRequest struct {
	Seq uint64
}

type WaitAfterResponse struct {
	NewSeq uint64
}

// ErrorResponse - a typed protocol-level failure, sent in place of
// the expected response when the dispatcher must report one
type ErrorResponse struct {
	Kind    string
	Message string
}

// Message - the tagged union actually carried over the wire. Exactly
// one field is non-nil; gob only encodes the fields that are set, so
// this costs nothing over a discriminated encoding while staying
// entirely self-describing.
type Message struct {
	Init                *Init
	CreateRequest       *CreateRequest
	CreateResponse      *CreateResponse
	WriteRequest        *WriteRequest
	WriteAck            *WriteAck
	CommitRequest       *CommitRequest
	CommitResponse      *CommitResponse
	ReadRequest         *ReadRequest
	ReadResponse        *ReadResponse
	ProveRequest        *ProveRequest
	ProveResponse       *ProveResponse
	StartCacheRequest   *StartCacheRequest
	StartCacheResponse  *StartCacheResponse
	GetLastNumRequest   *GetLastNumRequest
	GetLastNumResponse  *GetLastNumResponse
	NameFromNumRequest  *NameFromNumRequest
	NameFromNumResponse *NameFromNumResponse
	NumFromNameRequest  *NumFromNameRequest
	NumFromNameResponse *NumFromNameResponse
	WaitAfterRequest    *WaitAfterRequest
	WaitAfterResponse   *WaitAfterResponse
	Error               *ErrorResponse
}
