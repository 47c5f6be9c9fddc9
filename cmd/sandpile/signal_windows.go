//go:build windows

package main

import (
	"os"
	"os/signal"
)

// notifyStop delivers Ctrl+C to ch. SIGTERM does not exist on Windows.
func notifyStop(ch chan<- os.Signal) {
	signal.Notify(ch, os.Interrupt)
}
