// Collectable log, (*testing.T).Log style.
//
// If the test is not running in verbose mode, collect the app logger's output
// and display it JIT at Fatal[f] invocation. Capped: collection stops past a
// line cap and the remainder is reported as a count instead of handed to
// t.Log one by one, so a test that produces a large volume of Debug output
// (the semaphore and lifecycle components log a Debug line per block, wake,
// spawn and exit) does not flood the test log.

package gthreads_testutils

import (
	"io"
	"testing"
)

// defaultMaxCollectedLines bounds how many log lines TestLogCollect buffers
// before summarizing the rest.
const defaultMaxCollectedLines = 200

// The interface expected from a collectable log:
type CollectableLog interface {
	GetLevel() any
	SetLevel(level any)
	GetOutput() io.Writer
	SetOutput(out io.Writer)
}

type TestLogCollect struct {
	log        CollectableLog
	savedOut   io.Writer
	savedLevel any
	t          *testing.T

	maxLines   int
	linesSeen  int
	suppressed int
}

func NewTestLogCollect(t *testing.T, log any, level any) *TestLogCollect {
	tlc := &TestLogCollect{
		t:        t,
		maxLines: defaultMaxCollectedLines,
	}
	if log, ok := log.(CollectableLog); ok && log != nil {
		if !testing.Verbose() {
			tlc.log = log
			tlc.savedOut = log.GetOutput()
			log.SetOutput(tlc)
		}
		if level != nil {
			tlc.savedLevel = log.GetLevel()
			log.SetLevel(level)
		}
	}
	return tlc
}

func (tlc *TestLogCollect) Write(buf []byte) (int, error) {
	n := len(buf)
	tlc.linesSeen++
	if tlc.linesSeen > tlc.maxLines {
		tlc.suppressed++
		return n, nil
	}
	if n > 0 && buf[n-1] == '\n' {
		buf = buf[:n-1]
	}
	tlc.t.Log(string(buf))
	return n, nil
}

func (tlc *TestLogCollect) RestoreLog() {
	if tlc.suppressed > 0 {
		tlc.t.Logf("... %d further log line(s) suppressed (cap %d)", tlc.suppressed, tlc.maxLines)
	}
	if tlc.log != nil {
		if tlc.savedOut != nil {
			tlc.log.SetOutput(tlc.savedOut)
		}
		if tlc.savedLevel != nil {
			tlc.log.SetLevel(tlc.savedLevel)
		}
	}
}
