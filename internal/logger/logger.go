// Package logger prints pipeline diagnostics for frontdesk commands.
// Indexing and retrieval run as multi-step pipelines (extract, chunk,
// embed, search), and with --verbose each step reports what it did to
// stderr. Warnings always print: a skipped chunk or a failed embedding
// matters even in a quiet run.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// sink serializes writes so interleaved pipeline steps stay readable.
type sink struct {
	mu      sync.RWMutex
	verbose bool
	w       io.Writer
}

var std = sink{w: os.Stderr}

func (s *sink) print(gated bool, line string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if gated && !s.verbose {
		return
	}
	fmt.Fprint(s.w, line)
}

// SetVerbose toggles debug output for the process.
func SetVerbose(v bool) {
	std.mu.Lock()
	std.verbose = v
	std.mu.Unlock()
}

// IsVerbose reports whether debug output is enabled.
func IsVerbose() bool {
	std.mu.RLock()
	defer std.mu.RUnlock()
	return std.verbose
}

// SetOutput redirects log output away from stderr, mainly for tests.
func SetOutput(w io.Writer) {
	std.mu.Lock()
	std.w = w
	std.mu.Unlock()
}

// Stage marks the start of a pipeline stage, such as indexing a
// document or answering a retrieval query. Verbose only.
func Stage(format string, args ...any) {
	std.print(true, fmt.Sprintf("\n--- "+format+" ---\n", args...))
}

// Debug reports a step inside the current stage. Verbose only.
func Debug(format string, args ...any) {
	std.print(true, fmt.Sprintf("[DEBUG] "+format+"\n", args...))
}

// Info reports a stage outcome. Verbose only.
func Info(format string, args ...any) {
	std.print(true, fmt.Sprintf("[INFO] "+format+"\n", args...))
}

// Warn reports a degraded step, such as a chunk that could not be
// embedded. Warnings print regardless of verbosity.
func Warn(format string, args ...any) {
	std.print(false, fmt.Sprintf("[WARN] "+format+"\n", args...))
}
