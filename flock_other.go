//go:build !(darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris)
// +build !darwin,!dragonfly,!freebsd,!linux,!netbsd,!openbsd,!solaris

/* ipp-probe - IPP printer capability and status discovery
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Record file locking -- systems without flock
 */

package ippprobe

import (
	"os"
)

// recordLock does nothing: records are not shared there
func recordLock(file *os.File, wait bool) error {
	return nil
}

// recordUnlock does nothing
func recordUnlock(file *os.File) error {
	return nil
}
