//go:build tools
// +build tools

// Pins the go-fuzz toolchain so that
//
//	go-fuzz-build github.com/sparse-roi/go-bitmask-ntree/fuzz
//
// resolves against this module's go.mod.
package fuzzer

import (
	_ "github.com/dvyukov/go-fuzz/go-fuzz-build"
	_ "github.com/dvyukov/go-fuzz/go-fuzz-defs"

	// Runtime deps of go-fuzz itself, which predates modules.
	_ "github.com/elazarl/go-bindata-assetfs"
	_ "github.com/stephens2424/writerset"
)
