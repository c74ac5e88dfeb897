// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package service is the façade spec.md §6 describes: the
// request/response shapes for the three operations (violation
// detection, graph export, random walk), URI scheme handling, and a
// background-operation handle for long-running work, grounded on the
// teacher's habit (rtcheck, go-weave) of keeping scheduling state in a
// small mutable struct rather than a channel-heavy actor.
package service

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/aclements/go-eesi/apperr"
	"github.com/aclements/go-eesi/check"
	"github.com/aclements/go-eesi/ir"
)

// GetViolationsRequest selects which call sites to check and how.
type GetViolationsRequest struct {
	BitcodeHandle  string
	Specifications []ir.Specification
	ViolationType  check.ViolationType
}

// GetViolationsResponse carries every violation found.
type GetViolationsResponse struct {
	Violations []check.Violation
}

// GetGraphRequest asks for a serialized ICFG.
type GetGraphRequest struct {
	BitcodeHandle     string
	OutputURI         string
	RemoveCrossFolder bool
	ErrorCodes        []string
}

// RandomWalkRequest asks for a sampled set of walker sentences over a
// previously-exported graph.
type RandomWalkRequest struct {
	InputURI      string
	OutputURI     string
	WalksPerLabel int
	WalkLength    int
}

// ParseURI recognizes the two schemes spec.md §6 names. Only file://
// is actually backed by an implementation; gs:// fails with
// Unauthenticated ("blob client init") since the blob store is an
// external collaborator out of scope here — this keeps the boundary
// real without faking a GCS client. Any other scheme is
// InvalidArgument.
func ParseURI(raw string) (scheme, path string, err error) {
	i := strings.Index(raw, "://")
	if i < 0 {
		return "", "", apperr.New(apperr.InvalidArgument, "URI %q has no scheme", raw)
	}
	scheme, path = raw[:i], raw[i+3:]
	switch scheme {
	case "file":
		if path == "" {
			return "", "", apperr.New(apperr.InvalidArgument, "file:// URI %q has no path", raw)
		}
		return scheme, path, nil
	case "gs":
		return "", "", apperr.New(apperr.Unauthenticated, "blob client init for %q", raw)
	default:
		return "", "", apperr.New(apperr.InvalidArgument, "unsupported URI scheme %q", scheme)
	}
}

// OperationState is the three-state lifecycle of a background
// operation handle.
type OperationState int

const (
	Pending OperationState = iota
	Done
	Failed
)

func (s OperationState) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Done:
		return "Done"
	case Failed:
		return "Failed"
	}
	return "Unknown"
}

// Operation is a handle to a long-running background task (a
// GetViolations scan, a graph export, a random walk), backed by a
// goroutine and an atomically-guarded status field rather than a
// channel-heavy actor.
type Operation struct {
	state  atomic.Int32
	err    atomic.Value // error
	cancel context.CancelFunc
	done   chan struct{}
}

// Run starts work in a goroutine and returns its handle immediately.
// work is expected to observe ctx and return promptly after
// cancellation (dpool.Run's between-items cancellation contract).
func Run(parent context.Context, work func(context.Context) error) *Operation {
	ctx, cancel := context.WithCancel(parent)
	op := &Operation{cancel: cancel, done: make(chan struct{})}
	op.state.Store(int32(Pending))
	go func() {
		defer close(op.done)
		if err := work(ctx); err != nil {
			op.err.Store(err)
			op.state.Store(int32(Failed))
			return
		}
		op.state.Store(int32(Done))
	}()
	return op
}

// Done returns a channel closed once the operation reaches Done or
// Failed, for callers that want to block rather than poll Status.
func (op *Operation) Done() <-chan struct{} {
	return op.done
}

// Status reports the operation's current state and, once Failed, the
// error that caused it.
func (op *Operation) Status() (OperationState, error) {
	state := OperationState(op.state.Load())
	if state != Failed {
		return state, nil
	}
	if e, ok := op.err.Load().(error); ok {
		return state, e
	}
	return state, nil
}

// Cancel abandons the operation; the underlying work observes ctx
// cancellation between dpool items, not mid-item.
func (op *Operation) Cancel() {
	op.cancel()
}
