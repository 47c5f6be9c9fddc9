//go:build !windows

package main

import (
	"os"
	"os/signal"
	"syscall"
)

// notifyStop delivers SIGINT and SIGTERM to ch so a long run can stop
// between batches and still render what it has.
func notifyStop(ch chan<- os.Signal) {
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
}
