// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package logx is a thin leveled logger, in the spirit of rtcheck's
// warnl/warnp helpers: a recoverable per-item failure gets a one-line
// warning with a source location, nothing heavier.
package logx

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aclements/go-eesi/ir"
)

var std = slog.New(slog.NewTextHandler(os.Stderr, nil))

// SetOutput replaces the default logger, primarily for tests that
// want to capture warnings.
func SetOutput(l *slog.Logger) {
	std = l
}

// Warnf logs a recoverable, per-item analysis failure at warning
// level: missing debug info, an unresolved indirect callee, an
// unknown label id. These never abort the enclosing analysis run.
func Warnf(loc ir.Location, format string, args ...any) {
	std.Warn(sprintf(format, args...), "loc", loc.String())
}

// Warn is Warnf without a location, for module-wide warnings (e.g. an
// Invalid specification).
func Warn(format string, args ...any) {
	std.Warn(sprintf(format, args...))
}

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
