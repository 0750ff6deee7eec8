//go:build !linux
// +build !linux

package util

import (
	"io"
	"log"
	"os"
)

var logWriter io.Writer = os.Stderr

// GetLogWriter returns the writer the log package is wired to, so gin
// and friends can share it
func GetLogWriter() io.Writer {
	return logWriter
}

// SetupLogging is a no-op off Linux: journald does not exist there, so
// the flag only earns a warning and logging stays on stderr
func SetupLogging(withJournald bool) {
	if withJournald {
		log.Println("Warning: journald logging is only available on Linux, using standard logging")
	}
}
