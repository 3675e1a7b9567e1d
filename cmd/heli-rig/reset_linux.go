//go:build linux

package main

import (
	"log"
	"os"

	"golang.org/x/sys/unix"
)

// restart replaces the process with a fresh copy of itself. Nothing is torn
// down first: the new process reinitializes every output on startup.
func restart() {
	exe, err := os.Executable()
	if err != nil {
		log.Printf("reset failed: %v", err)
		return
	}
	log.Printf("reset requested, re-executing %s", exe)
	if err := unix.Exec(exe, os.Args, os.Environ()); err != nil {
		log.Printf("reset exec failed: %v", err)
	}
}
