package main

import (
	"os"
	"time"
)

// stdClock delegates to time.Now.
type stdClock struct{}

func (stdClock) Now() time.Time { return time.Now() }

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
