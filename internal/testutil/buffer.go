package testutil

import (
	"bytes"
	"strings"
	"sync"
)

// SyncBuffer is an io.Writer safe for use by concurrent loggers in tests.
type SyncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
	err error
}

// Write implements io.Writer. It fails with the configured error, if any.
func (b *SyncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return 0, b.err
	}
	return b.buf.Write(p)
}

// SetError makes every following Write fail with err.
func (b *SyncBuffer) SetError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
}

// String returns the current buffer contents.
func (b *SyncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Lines returns the non-empty lines written so far.
func (b *SyncBuffer) Lines() []string {
	var lines []string
	for _, l := range strings.Split(b.String(), "\n") {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
