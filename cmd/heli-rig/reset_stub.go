//go:build !linux

package main

import "log"

func restart() {
	log.Printf("reset unsupported on this platform")
}
