// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

//go:build !linux

package ogss

// adviseSequential is a no-op on platforms without madvise(2).
func adviseSequential(data []byte) {}
