// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

//go:build linux

package ogss

import "golang.org/x/sys/unix"

// adviseSequential hints to the kernel that the mapped region will be
// read front-to-back, which is how both the sequential and parallel
// parsers actually touch it (guard/strings/T/F first, then HD blocks in
// file order). Best-effort: a failure here never affects correctness.
func adviseSequential(data []byte) {
	if len(data) == 0 {
		return
	}
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)
}
