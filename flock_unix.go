//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris
// +build darwin dragonfly freebsd linux netbsd openbsd solaris

/* ipp-probe - IPP printer capability and status discovery
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Record file locking -- UNIX version
 */

package ippprobe

import (
	"os"
	"syscall"
)

// recordLock acquires exclusive lock on the record file. With
// wait set to false it fails with ErrLockIsBusy instead of waiting
func recordLock(file *os.File, wait bool) error {
	how := syscall.LOCK_EX
	if !wait {
		how |= syscall.LOCK_NB
	}

	err := syscall.Flock(int(file.Fd()), how)
	if err == syscall.Errno(syscall.EWOULDBLOCK) {
		err = ErrLockIsBusy
	}

	return err
}

// recordUnlock releases the record file lock
func recordUnlock(file *os.File) error {
	return syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
}
