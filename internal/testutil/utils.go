package testutil

import (
	"log"
	"os"
	"testing"
)

// TestLogger returns a logger whose lines are tagged with the running
// test's name, so interleaved output from parallel tests stays readable.
func TestLogger(t *testing.T) *log.Logger {
	return log.New(os.Stdout, "["+t.Name()+"] ", log.LstdFlags)
}
