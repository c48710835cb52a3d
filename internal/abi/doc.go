// Package abi provides internal arithmetic and value helpers shared by the
// segment, layout and message packages.
//
// # Contents
//
//   - helpers.go: checked uint32 arithmetic, alignment, float canonicalization
//
// Every offset the runtime dereferences is computed through SafeAddU32 or
// SafeMulU32; a wrapped offset would look in-bounds while addressing the
// wrong bytes.
//
// This package is internal to the runtime.
package abi
